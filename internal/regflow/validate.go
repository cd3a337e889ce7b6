package regflow

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type requiredField struct {
	field string
	label string
}

// requiredByStep fixes the presence checks per wizard step. Blood group,
// caste, the parent mobiles and the application number are collected but
// not required to advance; the application number is demanded at submit.
var requiredByStep = [stepCount][]requiredField{
	StepIdentity: {
		{FieldStudentFullName, "Student Full Name"},
		{FieldGender, "Gender"},
		{FieldDateOfBirth, "Date of Birth"},
		{FieldNationality, "Nationality"},
		{FieldStudentContactNo, "Student Contact Number"},
		{FieldStudentEmail, "Student Email"},
		{FieldParentContactNo, "Parent Contact Number"},
	},
	StepAddress: {
		{FieldCorrespondenceAddress, "Correspondence Address"},
		{FieldCorrespondenceCity, "Correspondence City"},
		{FieldCorrespondenceState, "Correspondence State"},
		{FieldCorrespondenceCountry, "Correspondence Country"},
		{FieldCorrespondencePostalCode, "Correspondence Postal Code"},
		{FieldPermanentAddress, "Permanent Address"},
		{FieldPermanentCity, "Permanent City"},
		{FieldPermanentState, "Permanent State"},
		{FieldPermanentCountry, "Permanent Country"},
		{FieldPermanentPostalCode, "Permanent Postal Code"},
	},
	StepAcademic: {
		{FieldTenthSchoolName, "10th School Name"},
		{FieldTenthBoardUniversity, "10th Board/University"},
		{FieldTenthPassedOutYear, "10th Passed Out Year"},
		{FieldTwelfthCollegeName, "12th College Name"},
		{FieldTwelfthBoardUniversity, "12th Board/University"},
		{FieldTwelfthPassedOutYear, "12th Passed Out Year"},
	},
	StepMarks: {
		{FieldTenthTotalMarks, "10th Total Marks"},
		{FieldTenthScoredMarks, "10th Scored Marks"},
		{FieldTenthPercentage, "10th Percentage"},
		{FieldTwelfthTotalMarks, "12th Total Marks"},
		{FieldTwelfthScoredMarks, "12th Scored Marks"},
		{FieldTwelfthPercentage, "12th Percentage"},
	},
	StepFamily: {
		{FieldFatherName, "Father's Name"},
		{FieldFatherOccupation, "Father's Occupation"},
		{FieldMotherName, "Mother's Name"},
		{FieldMotherOccupation, "Mother's Occupation"},
	},
	StepProgram: {
		{FieldDepartment, "Department"},
		{FieldProgramName, "Program Name"},
		{FieldAdmissionType, "Admission Type"},
	},
	StepDocuments: {},
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// timeNow anchors the passed-out-year windows; tests pin it.
var timeNow = time.Now

// ValidateStep checks one step of the form and returns the first
// problem found: all missing required labels aggregated into one
// message, then the step's cross-field rules in order. It never
// mutates the form.
func ValidateStep(f *Form, step int) error {
	if step < 0 || step >= stepCount {
		return fmt.Errorf("unknown step %d", step)
	}

	var missing []string
	for _, rf := range requiredByStep[step] {
		if strings.TrimSpace(f.Value(rf.field)) == "" {
			missing = append(missing, rf.label)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is required", strings.Join(missing, ", "))
	}

	switch step {
	case StepIdentity:
		return validateIdentity(f)
	case StepAcademic:
		return validateAcademic(f)
	case StepMarks:
		return validateMarks(f)
	case StepFamily:
		return validateFamily(f)
	}
	return nil
}

func validateIdentity(f *Form) error {
	if !emailPattern.MatchString(strings.TrimSpace(f.Value(FieldStudentEmail))) {
		return errors.New("Student Email is not a valid email address")
	}
	if len(strings.TrimSpace(f.Value(FieldStudentContactNo))) < 10 {
		return errors.New("Student Contact Number must be at least 10 digits")
	}
	if len(strings.TrimSpace(f.Value(FieldParentContactNo))) < 10 {
		return errors.New("Parent Contact Number must be at least 10 digits")
	}
	if !f.ParentVerified() {
		return errors.New("must verify OTP before proceeding")
	}
	return nil
}

func validateAcademic(f *Form) error {
	currentYear := timeNow().Year()

	tenth, err := strconv.Atoi(strings.TrimSpace(f.Value(FieldTenthPassedOutYear)))
	if err != nil || tenth < currentYear-15 || tenth > currentYear {
		return errors.New("10th Passed Out Year must be within the last 15 years")
	}
	twelfth, err := strconv.Atoi(strings.TrimSpace(f.Value(FieldTwelfthPassedOutYear)))
	if err != nil || twelfth < currentYear-10 || twelfth > currentYear {
		return errors.New("12th Passed Out Year must be within the last 10 years")
	}
	if twelfth < tenth {
		return errors.New("12th Passed Out Year cannot precede the 10th year")
	}
	return nil
}

func validateMarks(f *Form) error {
	boards := []struct {
		label      string
		total      string
		scored     string
		percentage string
	}{
		{"10th", FieldTenthTotalMarks, FieldTenthScoredMarks, FieldTenthPercentage},
		{"12th", FieldTwelfthTotalMarks, FieldTwelfthScoredMarks, FieldTwelfthPercentage},
	}

	for _, b := range boards {
		total, err := parseMark(f.Value(b.total))
		if err != nil {
			return fmt.Errorf("%s Total Marks must be a number", b.label)
		}
		scored, err := parseMark(f.Value(b.scored))
		if err != nil {
			return fmt.Errorf("%s Scored Marks must be a number", b.label)
		}
		if scored > total {
			return fmt.Errorf("%s Scored Marks cannot exceed Total Marks", b.label)
		}
		percentage, err := parseMark(f.Value(b.percentage))
		if err != nil || percentage < 0 || percentage > 100 {
			return fmt.Errorf("%s Percentage must be between 0 and 100", b.label)
		}
	}
	return nil
}

func validateFamily(f *Form) error {
	if mobile := strings.TrimSpace(f.Value(FieldFatherMobile)); mobile != "" && len(mobile) < 10 {
		return errors.New("Father's Mobile Number must be at least 10 digits")
	}
	if mobile := strings.TrimSpace(f.Value(FieldMotherMobile)); mobile != "" && len(mobile) < 10 {
		return errors.New("Mother's Mobile Number must be at least 10 digits")
	}
	return nil
}

func parseMark(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}
