// Package regflow implements the registration desk workflow: the
// seven-step form, its validation rules, the OTP sub-flow and document
// staging. It talks to the admissions API through a narrow interface
// and is decoupled from any UI toolkit.
package regflow

import (
	"strings"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
)

// Step indices of the registration wizard.
const (
	StepIdentity = iota
	StepAddress
	StepAcademic
	StepMarks
	StepFamily
	StepProgram
	StepDocuments
	stepCount
)

// Form field names, matching the wire names of the registration payload.
const (
	FieldStudentFullName  = "studentFullName"
	FieldGender           = "gender"
	FieldDateOfBirth      = "dateOfBirth"
	FieldBloodGroup       = "bloodGroup"
	FieldNationality      = "nationality"
	FieldCaste            = "caste"
	FieldStudentContactNo = "studentContactNo"
	FieldStudentEmail     = "studentEmail"
	FieldParentContactNo  = "parentContactNo"

	FieldCorrespondenceAddress    = "correspondenceAddress"
	FieldCorrespondenceCity       = "correspondenceCity"
	FieldCorrespondenceState      = "correspondenceState"
	FieldCorrespondenceCountry    = "correspondenceCountry"
	FieldCorrespondencePostalCode = "correspondencePostalCode"

	FieldPermanentAddress    = "permanentAddress"
	FieldPermanentCity       = "permanentCity"
	FieldPermanentState      = "permanentState"
	FieldPermanentCountry    = "permanentCountry"
	FieldPermanentPostalCode = "permanentPostalCode"

	FieldTenthSchoolName        = "tenthSchoolName"
	FieldTenthBoardUniversity   = "tenthBoardUniversity"
	FieldTenthPassedOutYear     = "tenthPassedOutYear"
	FieldTwelfthCollegeName     = "twelfthCollegeName"
	FieldTwelfthBoardUniversity = "twelfthBoardUniversity"
	FieldTwelfthPassedOutYear   = "twelfthPassedOutYear"

	FieldTenthTotalMarks    = "tenthTotalMarks"
	FieldTenthScoredMarks   = "tenthScoredMarks"
	FieldTenthPercentage    = "tenthPercentage"
	FieldTwelfthTotalMarks  = "twelfthTotalMarks"
	FieldTwelfthScoredMarks = "twelfthScoredMarks"
	FieldTwelfthPercentage  = "twelfthPercentage"

	FieldFatherName       = "fatherName"
	FieldFatherOccupation = "fatherOccupation"
	FieldFatherMobile     = "fatherMobile"
	FieldMotherName       = "motherName"
	FieldMotherOccupation = "motherOccupation"
	FieldMotherMobile     = "motherMobile"

	FieldDepartment    = "department"
	FieldProgramName   = "programName"
	FieldAdmissionType = "admissionType"

	FieldJUApplication = "juApplication"
)

// permanentForCorrespondence pairs each correspondence address field with
// its permanent counterpart for the mirroring toggle.
var permanentForCorrespondence = map[string]string{
	FieldCorrespondenceAddress:    FieldPermanentAddress,
	FieldCorrespondenceCity:       FieldPermanentCity,
	FieldCorrespondenceState:      FieldPermanentState,
	FieldCorrespondenceCountry:    FieldPermanentCountry,
	FieldCorrespondencePostalCode: FieldPermanentPostalCode,
}

// Form is the single mutable aggregate behind all seven steps. Fields
// are never reset when navigating between steps; only ClearReceipt on
// the workflow discards a form.
type Form struct {
	values               map[string]string
	sameAsCorrespondence bool
	parentVerified       bool
	staged               map[string]StagedFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{
		values: make(map[string]string),
		staged: make(map[string]StagedFile),
	}
}

// Value returns the current value of a field.
func (f *Form) Value(field string) string {
	return f.values[field]
}

// Set stores a field value. While the mirroring toggle is on, writing a
// correspondence address field copies the value to its permanent
// counterpart. Editing the parent contact number drops the verified
// flag so a new number must be confirmed again.
func (f *Form) Set(field, value string) {
	if field == FieldParentContactNo && f.parentVerified && value != f.values[field] {
		f.parentVerified = false
	}

	f.values[field] = value

	if f.sameAsCorrespondence {
		if permanent, ok := permanentForCorrespondence[field]; ok {
			f.values[permanent] = value
		}
	}
}

// SameAsCorrespondence reports the state of the mirroring toggle.
func (f *Form) SameAsCorrespondence() bool {
	return f.sameAsCorrespondence
}

// SetSameAsCorrespondence flips the address mirroring toggle. Enabling
// copies the five correspondence fields over immediately; disabling
// blanks the permanent set rather than restoring earlier manual entries.
func (f *Form) SetSameAsCorrespondence(enabled bool) {
	f.sameAsCorrespondence = enabled
	for correspondence, permanent := range permanentForCorrespondence {
		if enabled {
			f.values[permanent] = f.values[correspondence]
		} else {
			f.values[permanent] = ""
		}
	}
}

// ParentVerified reports whether the parent phone passed the OTP gate.
func (f *Form) ParentVerified() bool {
	return f.parentVerified
}

// SetParentVerified records the OTP gate outcome.
func (f *Form) SetParentVerified(verified bool) {
	f.parentVerified = verified
}

// BuildRequest assembles the wire payload from the form state, staged
// files included.
func (f *Form) BuildRequest() *dto.RegistrationRequest {
	req := &dto.RegistrationRequest{
		StudentFullName:  strings.TrimSpace(f.Value(FieldStudentFullName)),
		Gender:           f.Value(FieldGender),
		DateOfBirth:      f.Value(FieldDateOfBirth),
		BloodGroup:       f.Value(FieldBloodGroup),
		Nationality:      f.Value(FieldNationality),
		Caste:            f.Value(FieldCaste),
		StudentContactNo: strings.TrimSpace(f.Value(FieldStudentContactNo)),
		StudentEmail:     strings.TrimSpace(f.Value(FieldStudentEmail)),
		ParentContactNo:  strings.TrimSpace(f.Value(FieldParentContactNo)),
		ParentVerified:   f.parentVerified,

		CorrespondenceAddress:    f.Value(FieldCorrespondenceAddress),
		CorrespondenceCity:       f.Value(FieldCorrespondenceCity),
		CorrespondenceState:      f.Value(FieldCorrespondenceState),
		CorrespondenceCountry:    f.Value(FieldCorrespondenceCountry),
		CorrespondencePostalCode: f.Value(FieldCorrespondencePostalCode),

		SameAsCorrespondence: f.sameAsCorrespondence,
		PermanentAddress:     f.Value(FieldPermanentAddress),
		PermanentCity:        f.Value(FieldPermanentCity),
		PermanentState:       f.Value(FieldPermanentState),
		PermanentCountry:     f.Value(FieldPermanentCountry),
		PermanentPostalCode:  f.Value(FieldPermanentPostalCode),

		TenthSchoolName:        f.Value(FieldTenthSchoolName),
		TenthBoardUniversity:   f.Value(FieldTenthBoardUniversity),
		TenthPassedOutYear:     f.Value(FieldTenthPassedOutYear),
		TwelfthCollegeName:     f.Value(FieldTwelfthCollegeName),
		TwelfthBoardUniversity: f.Value(FieldTwelfthBoardUniversity),
		TwelfthPassedOutYear:   f.Value(FieldTwelfthPassedOutYear),

		TenthTotalMarks:    f.Value(FieldTenthTotalMarks),
		TenthScoredMarks:   f.Value(FieldTenthScoredMarks),
		TenthPercentage:    f.Value(FieldTenthPercentage),
		TwelfthTotalMarks:  f.Value(FieldTwelfthTotalMarks),
		TwelfthScoredMarks: f.Value(FieldTwelfthScoredMarks),
		TwelfthPercentage:  f.Value(FieldTwelfthPercentage),

		FatherName:       f.Value(FieldFatherName),
		FatherOccupation: f.Value(FieldFatherOccupation),
		FatherMobile:     f.Value(FieldFatherMobile),
		MotherName:       f.Value(FieldMotherName),
		MotherOccupation: f.Value(FieldMotherOccupation),
		MotherMobile:     f.Value(FieldMotherMobile),

		Department:    f.Value(FieldDepartment),
		ProgramName:   f.Value(FieldProgramName),
		AdmissionType: f.Value(FieldAdmissionType),

		JUApplication: strings.TrimSpace(f.Value(FieldJUApplication)),
	}

	if len(f.staged) > 0 {
		req.Documents = make(map[string]dto.RegistrationDocument, len(f.staged))
		for field, file := range f.staged {
			req.Documents[field] = dto.RegistrationDocument{
				FileName: file.FileName,
				FileData: file.Data,
			}
		}
	}

	return req
}

// UploadFields lists the accepted upload slots in display order.
func UploadFields() []string {
	fields := make([]string, len(models.UploadFields))
	copy(fields, models.UploadFields)
	return fields
}
