package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileLinkType is the persisted discriminator of a file's owner
type FileLinkType string

const (
	FileLinkRfq           FileLinkType = "rfq"
	FileLinkOrder         FileLinkType = "order"
	FileLinkQualityCheck  FileLinkType = "quality_check"
	FileLinkSupplierQuote FileLinkType = "supplier_quote"
)

// ErrInvalidFileLink is returned when a link type or id cannot be parsed
var ErrInvalidFileLink = errors.New("invalid file link")

// FileLink is the owner of an uploaded file. The set of variants is closed:
// RfqFile, OrderFile, QualityCheckFile and SupplierQuoteFile.
type FileLink interface {
	LinkType() FileLinkType
	TargetID() uuid.UUID
	isFileLink()
}

// RfqFile links a file to an RFQ (drawings, STEP models)
type RfqFile struct{ RfqID uuid.UUID }

// OrderFile links a file to a sales order
type OrderFile struct{ OrderID uuid.UUID }

// QualityCheckFile links an inspection report to a sales order
type QualityCheckFile struct{ OrderID uuid.UUID }

// SupplierQuoteFile links a file to a supplier's bid
type SupplierQuoteFile struct{ SupplierQuoteID uuid.UUID }

func (l RfqFile) LinkType() FileLinkType           { return FileLinkRfq }
func (l RfqFile) TargetID() uuid.UUID              { return l.RfqID }
func (RfqFile) isFileLink()                        {}
func (l OrderFile) LinkType() FileLinkType         { return FileLinkOrder }
func (l OrderFile) TargetID() uuid.UUID            { return l.OrderID }
func (OrderFile) isFileLink()                      {}
func (l QualityCheckFile) LinkType() FileLinkType  { return FileLinkQualityCheck }
func (l QualityCheckFile) TargetID() uuid.UUID     { return l.OrderID }
func (QualityCheckFile) isFileLink()               {}
func (l SupplierQuoteFile) LinkType() FileLinkType { return FileLinkSupplierQuote }
func (l SupplierQuoteFile) TargetID() uuid.UUID    { return l.SupplierQuoteID }
func (SupplierQuoteFile) isFileLink()              {}

// NewFileLink builds the typed link for a discriminator and target id
func NewFileLink(linkType FileLinkType, id uuid.UUID) (FileLink, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidFileLink)
	}
	switch linkType {
	case FileLinkRfq:
		return RfqFile{RfqID: id}, nil
	case FileLinkOrder:
		return OrderFile{OrderID: id}, nil
	case FileLinkQualityCheck:
		return QualityCheckFile{OrderID: id}, nil
	case FileLinkSupplierQuote:
		return SupplierQuoteFile{SupplierQuoteID: id}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidFileLink, linkType)
	}
}

// ParseFileLink parses the wire form of a link (type string plus uuid string)
func ParseFileLink(linkType, id string) (FileLink, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFileLink, err)
	}
	return NewFileLink(FileLinkType(linkType), parsed)
}

// FileType is the coarse kind of an uploaded artifact
type FileType string

const (
	FileTypeStep    FileType = "step"
	FileTypePDF     FileType = "pdf"
	FileTypeExcel   FileType = "excel"
	FileTypeImage   FileType = "image"
	FileTypeDrawing FileType = "drawing"
)

var fileTypesByExt = map[string]FileType{
	".step": FileTypeStep,
	".stp":  FileTypeStep,
	".iges": FileTypeStep,
	".igs":  FileTypeStep,
	".pdf":  FileTypePDF,
	".xls":  FileTypeExcel,
	".xlsx": FileTypeExcel,
	".csv":  FileTypeExcel,
	".png":  FileTypeImage,
	".jpg":  FileTypeImage,
	".jpeg": FileTypeImage,
	".dwg":  FileTypeDrawing,
	".dxf":  FileTypeDrawing,
}

// DetectFileType classifies a file name by extension. ok is false for
// extensions that are not accepted for upload.
func DetectFileType(fileName string) (FileType, bool) {
	ft, ok := fileTypesByExt[strings.ToLower(filepath.Ext(fileName))]
	return ft, ok
}

// File is an uploaded artifact linked to exactly one owner
type File struct {
	BaseModel
	FileName     string       `gorm:"type:varchar(255);not null"`
	ContentType  string       `gorm:"type:varchar(100);not null"`
	StoragePath  string       `gorm:"type:varchar(500);not null"`
	Size         int64        `gorm:"not null"`
	FileType     FileType     `gorm:"type:varchar(20);not null"`
	UploadedByID uuid.UUID    `gorm:"type:uuid;not null"`
	LinkedToType FileLinkType `gorm:"type:varchar(30);not null;index:idx_files_link"`
	LinkedToID   uuid.UUID    `gorm:"type:uuid;not null;index:idx_files_link"`
}

// Link returns the typed owner of the file
func (f *File) Link() (FileLink, error) {
	return NewFileLink(f.LinkedToType, f.LinkedToID)
}

// SetLink stores the typed owner in the persisted columns
func (f *File) SetLink(link FileLink) {
	f.LinkedToType = link.LinkType()
	f.LinkedToID = link.TargetID()
}
