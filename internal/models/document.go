package models

import "time"

// Document checklist keys. The admission office verifies physical
// documents against this fixed list; six of the ten are mandatory for
// final verification.
const (
	DocTenthMarksheet       = "10th_marksheet"
	DocTwelfthMarksheet     = "12th_marksheet"
	DocTransferCertificate  = "transfer_certificate"
	DocCharacterCertificate = "character_certificate"
	DocAadhaarCard          = "aadhar_card"
	DocPassportPhotos       = "passport_photos"
	DocCasteCertificate     = "caste_certificate"
	DocIncomeCertificate    = "income_certificate"
	DocMigrationCertificate = "migration_certificate"
	DocPANCard              = "pan_card"
)

// RequiredDocumentKeys are the checklist entries that must all be
// verified before a student can reach the verified status.
var RequiredDocumentKeys = []string{
	DocTenthMarksheet,
	DocTwelfthMarksheet,
	DocTransferCertificate,
	DocCharacterCertificate,
	DocAadhaarCard,
	DocPassportPhotos,
}

// OptionalDocumentKeys complete the checklist shown in the console.
var OptionalDocumentKeys = []string{
	DocCasteCertificate,
	DocIncomeCertificate,
	DocMigrationCertificate,
	DocPANCard,
}

// DocumentLabels provides display names for checklist keys.
var DocumentLabels = map[string]string{
	DocTenthMarksheet:       "10th / S.S.L.C Marks Card",
	DocTwelfthMarksheet:     "12th / PUC / Diploma Marks Card",
	DocTransferCertificate:  "Transfer Certificate",
	DocCharacterCertificate: "Character / Conduct Certificate",
	DocAadhaarCard:          "Aadhaar Card of Student",
	DocPassportPhotos:       "6 Passport Size Colour Photos",
	DocCasteCertificate:     "Caste Certificate",
	DocIncomeCertificate:    "Income Certificate",
	DocMigrationCertificate: "Migration Certificate",
	DocPANCard:              "PAN Card of Student / Parent",
}

// Registration upload field names accepted by the registration form.
const (
	UploadAadhaar             = "aadhaarUpload"
	UploadTenthMarksheet      = "tenthMarksheetUpload"
	UploadTwelfthMarksheet    = "twelfthMarksheetUpload"
	UploadTransferCertificate = "transferCertificateUpload"
	UploadConductCertificate  = "conductCertificateUpload"
	UploadCasteCertificate    = "casteCertificateUpload"
	UploadIncomeCertificate   = "incomeCertificateUpload"
	UploadPhotograph          = "photographUpload"
)

// UploadFields lists the accepted registration upload slots in display order.
var UploadFields = []string{
	UploadAadhaar,
	UploadTenthMarksheet,
	UploadTwelfthMarksheet,
	UploadTransferCertificate,
	UploadConductCertificate,
	UploadCasteCertificate,
	UploadIncomeCertificate,
	UploadPhotograph,
}

// UploadFieldForKey maps a checklist key to the registration upload slot
// that would hold its scan. Keys without a slot (migration certificate,
// PAN card) are collected on paper only.
var UploadFieldForKey = map[string]string{
	DocTenthMarksheet:       UploadTenthMarksheet,
	DocTwelfthMarksheet:     UploadTwelfthMarksheet,
	DocTransferCertificate:  UploadTransferCertificate,
	DocCharacterCertificate: UploadConductCertificate,
	DocAadhaarCard:          UploadAadhaar,
	DocPassportPhotos:       UploadPhotograph,
	DocCasteCertificate:     UploadCasteCertificate,
	DocIncomeCertificate:    UploadIncomeCertificate,
}

// AllDocumentKeys returns required keys followed by optional ones.
func AllDocumentKeys() []string {
	keys := make([]string, 0, len(RequiredDocumentKeys)+len(OptionalDocumentKeys))
	keys = append(keys, RequiredDocumentKeys...)
	keys = append(keys, OptionalDocumentKeys...)
	return keys
}

// DocumentVerification is one checklist entry for one student.
type DocumentVerification struct {
	ID         string     `db:"id" json:"-"`
	StudentID  string     `db:"student_id" json:"-"`
	Key        string     `db:"doc_key" json:"-"`
	Verified   bool       `db:"verified" json:"verified"`
	Notes      string     `db:"notes" json:"notes"`
	VerifiedAt *time.Time `db:"verified_at" json:"verifiedAt"`
	VerifiedBy *string    `db:"verified_by" json:"verifiedBy"`
	UpdatedAt  time.Time  `db:"updated_at" json:"-"`
}

// RequiredComplete reports whether every required key is verified in the
// given checklist state.
func RequiredComplete(checklist map[string]DocumentVerification) bool {
	for _, key := range RequiredDocumentKeys {
		if !checklist[key].Verified {
			return false
		}
	}
	return true
}

// StudentDocument is an uploaded file attached to a registration.
type StudentDocument struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	FieldName   string    `db:"field_name" json:"field_name"`
	FileName    string    `db:"file_name" json:"file_name"`
	FilePath    string    `db:"file_path" json:"-"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	ContentType string    `db:"content_type" json:"content_type"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}
