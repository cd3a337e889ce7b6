package dto

import (
	"github.com/campusops/admissions-api/pkg/response"
)

// RegistrationDocument is a staged upload riding inside the registration
// payload. FileData crosses the wire as base64 ([]byte marshals that way).
type RegistrationDocument struct {
	FileName string `json:"fileName"`
	FileData []byte `json:"fileData"`
}

// RegistrationRequest is the complete multi-step registration form as
// submitted by the registration desk. Scalar inputs stay strings; the
// server parses what it needs and archives the full aggregate.
type RegistrationRequest struct {
	// Identity & contact
	StudentFullName  string `json:"studentFullName"`
	Gender           string `json:"gender"`
	DateOfBirth      string `json:"dateOfBirth"`
	BloodGroup       string `json:"bloodGroup"`
	Nationality      string `json:"nationality"`
	Caste            string `json:"caste"`
	StudentContactNo string `json:"studentContactNo"`
	StudentEmail     string `json:"studentEmail"`
	ParentContactNo  string `json:"parentContactNo"`
	ParentVerified   bool   `json:"parentVerified"`

	// Correspondence address
	CorrespondenceAddress    string `json:"correspondenceAddress"`
	CorrespondenceCity       string `json:"correspondenceCity"`
	CorrespondenceState      string `json:"correspondenceState"`
	CorrespondenceCountry    string `json:"correspondenceCountry"`
	CorrespondencePostalCode string `json:"correspondencePostalCode"`

	// Permanent address (mirrors correspondence when sameAsCorrespondence)
	SameAsCorrespondence bool   `json:"sameAsCorrespondence"`
	PermanentAddress     string `json:"permanentAddress"`
	PermanentCity        string `json:"permanentCity"`
	PermanentState       string `json:"permanentState"`
	PermanentCountry     string `json:"permanentCountry"`
	PermanentPostalCode  string `json:"permanentPostalCode"`

	// Academic history
	TenthSchoolName        string `json:"tenthSchoolName"`
	TenthBoardUniversity   string `json:"tenthBoardUniversity"`
	TenthPassedOutYear     string `json:"tenthPassedOutYear"`
	TwelfthCollegeName     string `json:"twelfthCollegeName"`
	TwelfthBoardUniversity string `json:"twelfthBoardUniversity"`
	TwelfthPassedOutYear   string `json:"twelfthPassedOutYear"`

	// Subject marks
	TenthTotalMarks    string `json:"tenthTotalMarks"`
	TenthScoredMarks   string `json:"tenthScoredMarks"`
	TenthPercentage    string `json:"tenthPercentage"`
	TwelfthTotalMarks  string `json:"twelfthTotalMarks"`
	TwelfthScoredMarks string `json:"twelfthScoredMarks"`
	TwelfthPercentage  string `json:"twelfthPercentage"`

	// Family
	FatherName       string `json:"fatherName"`
	FatherOccupation string `json:"fatherOccupation"`
	FatherMobile     string `json:"fatherMobile"`
	MotherName       string `json:"motherName"`
	MotherOccupation string `json:"motherOccupation"`
	MotherMobile     string `json:"motherMobile"`

	// Program
	Department    string `json:"department"`
	ProgramName   string `json:"programName"`
	AdmissionType string `json:"admissionType"`

	// Admission application number
	JUApplication string `json:"juApplication"`

	// Staged uploads keyed by upload field name
	Documents map[string]RegistrationDocument `json:"documents,omitempty"`
}

// DocumentUploadSummary reports how the inline uploads fared.
type DocumentUploadSummary struct {
	UploadedCount int `json:"uploadedCount"`
	FailedCount   int `json:"failedCount"`
}

// RegistrationReceipt is the durable record the registration desk keeps
// for a submitted student.
type RegistrationReceipt struct {
	Name             string                `json:"name"`
	StudentID        string                `json:"studentId"`
	JUApplication    string                `json:"juApplication"`
	Department       string                `json:"department"`
	Status           string                `json:"status"`
	RegistrationDate string                `json:"registrationDate"`
	DocumentUpload   DocumentUploadSummary `json:"documentUpload"`
}

// RegistrationResponse confirms a stored registration.
type RegistrationResponse struct {
	response.Base
	StudentID      string                `json:"studentId"`
	JUApplication  string                `json:"juApplication"`
	Data           RegistrationReceipt   `json:"data"`
	DocumentUpload DocumentUploadSummary `json:"documentUpload"`
}
