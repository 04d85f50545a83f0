package mailer

import (
	"fmt"

	"github.com/osteele/liquid"
)

// Template names
const (
	TemplateVerificationCode   = "verification_code"
	TemplatePasswordReset      = "password_reset"
	TemplateWelcome            = "welcome"
	TemplateRfqSubmitted       = "rfq_submitted"
	TemplateQuoteReady         = "quote_ready"
	TemplateQuoteResponse      = "quote_response"
	TemplateOrderCreated       = "order_created"
	TemplateOrderStatus        = "order_status"
	TemplateSupplierAssignment = "supplier_assignment"
	TemplatePurchaseOrder      = "purchase_order"
	TemplateMessageReminder    = "message_reminder"
)

// Template is the liquid source of one email
type Template struct {
	Subject string
	HTML    string
	Text    string
}

const layoutStart = `<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">`
const layoutEnd = `<p style="margin-top: 30px; font-size: 12px; color: #7f8c8d;">S-Hub manufacturing portal</p></div>`

var defaultTemplates = map[string]Template{
	TemplateVerificationCode: {
		Subject: "Your S-Hub verification code",
		HTML: layoutStart + `<h1>Verify your email</h1><p>Hello {{ name }},</p>
<p>Your verification code is:</p>
<h2 style="letter-spacing: 3px; background-color: #f5f5f5; padding: 15px; display: inline-block;">{{ code }}</h2>
<p>The code expires in {{ minutes }} minutes.</p>` + layoutEnd,
		Text: "Hello {{ name }}, your S-Hub verification code is {{ code }}. It expires in {{ minutes }} minutes.",
	},
	TemplatePasswordReset: {
		Subject: "Reset your S-Hub password",
		HTML: layoutStart + `<h1>Password reset</h1><p>Hello {{ name }},</p>
<p>Use this code to reset your password:</p>
<h2 style="letter-spacing: 3px; background-color: #f5f5f5; padding: 15px; display: inline-block;">{{ code }}</h2>
<p>The code expires in {{ minutes }} minutes. If you did not ask for a reset you can ignore this email.</p>` + layoutEnd,
		Text: "Hello {{ name }}, your S-Hub password reset code is {{ code }}. It expires in {{ minutes }} minutes.",
	},
	TemplateWelcome: {
		Subject: "Your S-Hub account is ready",
		HTML: layoutStart + `<h1>Welcome to S-Hub</h1><p>Hello {{ name }},</p>
<p>An administrator created a {{ role }} account for you.</p>
<p>Email: <strong>{{ email }}</strong><br>Temporary password: <strong>{{ password }}</strong></p>
<p>You will be asked to choose a new password when you first <a href="{{ link }}">sign in</a>.</p>` + layoutEnd,
		Text: "Hello {{ name }}, your S-Hub {{ role }} account is ready. Temporary password: {{ password }}. Sign in at {{ link }}",
	},
	TemplateRfqSubmitted: {
		Subject: "New RFQ: {{ project }}",
		HTML: layoutStart + `<h1>New request for quote</h1>
<p><strong>{{ customer }}</strong> submitted <strong>{{ project }}</strong> ({{ quantity }} pcs, {{ material }}).</p>
<p><a href="{{ link }}">Open the RFQ</a></p>` + layoutEnd,
		Text: "{{ customer }} submitted {{ project }} ({{ quantity }} pcs, {{ material }}). {{ link }}",
	},
	TemplateQuoteReady: {
		Subject: "Your quote {{ number }} is ready",
		HTML: layoutStart + `<h1>Your quote is ready</h1><p>Hello {{ name }},</p>
<p>Quote <strong>{{ number }}</strong> for <strong>{{ project }}</strong> is {{ amount }} {{ currency }}, valid until {{ valid_until }}.</p>
<p><a href="{{ link }}">Review the quote</a></p>` + layoutEnd,
		Text: "Quote {{ number }} for {{ project }}: {{ amount }} {{ currency }}, valid until {{ valid_until }}. {{ link }}",
	},
	TemplateQuoteResponse: {
		Subject: "Quote {{ number }} was {{ action }}",
		HTML: layoutStart + `<p><strong>{{ customer }}</strong> {{ action }} quote <strong>{{ number }}</strong> for {{ project }}.</p>
<p><a href="{{ link }}">Open the RFQ</a></p>` + layoutEnd,
		Text: "{{ customer }} {{ action }} quote {{ number }} for {{ project }}. {{ link }}",
	},
	TemplateOrderCreated: {
		Subject: "Order {{ number }} confirmed",
		HTML: layoutStart + `<h1>Order confirmed</h1><p>Hello {{ name }},</p>
<p>Order <strong>{{ number }}</strong> for <strong>{{ project }}</strong> has been created.</p>
{% if waiting_for_po %}<p>Please upload your purchase order so production can start.</p>{% endif %}
<p><a href="{{ link }}">Track your order</a></p>` + layoutEnd,
		Text: "Order {{ number }} for {{ project }} has been created. {{ link }}",
	},
	TemplateOrderStatus: {
		Subject: "Order {{ number }} is now {{ status }}",
		HTML: layoutStart + `<p>Hello {{ name }},</p><p>Order <strong>{{ number }}</strong> moved to <strong>{{ status }}</strong>.</p>
<p><a href="{{ link }}">Track your order</a></p>` + layoutEnd,
		Text: "Order {{ number }} moved to {{ status }}. {{ link }}",
	},
	TemplateSupplierAssignment: {
		Subject: "New RFQ {{ reference }} to quote",
		HTML: layoutStart + `<h1>New quoting opportunity</h1><p>Hello {{ name }},</p>
<p>You have been invited to quote <strong>{{ reference }}</strong> ({{ quantity }} pcs, {{ material }}).</p>
{% if due_date %}<p>Please respond by {{ due_date }}.</p>{% endif %}
<p><a href="{{ link }}">Open the RFQ</a></p>` + layoutEnd,
		Text: "You have been invited to quote {{ reference }} ({{ quantity }} pcs, {{ material }}). {{ link }}",
	},
	TemplatePurchaseOrder: {
		Subject: "Purchase order {{ number }}",
		HTML: layoutStart + `<h1>Purchase order issued</h1><p>Hello {{ name }},</p>
<p>Purchase order <strong>{{ number }}</strong> for {{ amount }} {{ currency }} is waiting for your response.</p>
<p><a href="{{ link }}">Respond to the purchase order</a></p>` + layoutEnd,
		Text: "Purchase order {{ number }} for {{ amount }} {{ currency }} is waiting for your response. {{ link }}",
	},
	TemplateMessageReminder: {
		Subject: "You have {{ count }} unread message{% if count != 1 %}s{% endif %} on S-Hub",
		HTML: layoutStart + `<p>Hello {{ name }},</p>
<p>You have {{ count }} unread message{% if count != 1 %}s{% endif %} from {{ senders }}.</p>
<p><a href="{{ link }}">Open your inbox</a></p>` + layoutEnd,
		Text: "You have {{ count }} unread messages from {{ senders }}. {{ link }}",
	},
}

// Renderer renders the named liquid templates
type Renderer struct {
	engine    *liquid.Engine
	templates map[string]Template
}

// NewRenderer returns a renderer loaded with the portal templates
func NewRenderer() *Renderer {
	return &Renderer{
		engine:    liquid.NewEngine(),
		templates: defaultTemplates,
	}
}

// Render fills subject and bodies of the named template. The recipient is
// left to the caller.
func (r *Renderer) Render(name string, data map[string]interface{}) (Email, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return Email{}, fmt.Errorf("unknown email template: %s", name)
	}

	subject, err := r.engine.ParseAndRenderString(tpl.Subject, data)
	if err != nil {
		return Email{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	html, err := r.engine.ParseAndRenderString(tpl.HTML, data)
	if err != nil {
		return Email{}, fmt.Errorf("render %s html: %w", name, err)
	}
	text, err := r.engine.ParseAndRenderString(tpl.Text, data)
	if err != nil {
		return Email{}, fmt.Errorf("render %s text: %w", name, err)
	}

	return Email{Subject: subject, HTML: html, Text: text}, nil
}
