package leadmagnet

import "regexp"

var (
	namePattern  = regexp.MustCompile(`^[\p{L}\s'-]{2,100}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{1,9}$`)
)

// Timelines are the accepted timeline values.
var Timelines = []string{"0-6", "6-12", "12+", "research"}

func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email) && len(email) <= 254
}

// ValidPhone accepts an empty phone; the field is optional.
func ValidPhone(phone string) bool {
	if phone == "" {
		return true
	}
	return phonePattern.MatchString(phone) && len(phone) <= 20
}

func validTimeline(t string) bool {
	for _, v := range Timelines {
		if v == t {
			return true
		}
	}
	return false
}

// Validate returns field -> message for every problem, or nil.
func Validate(f Form) map[string]string {
	errs := make(map[string]string)

	switch {
	case f.Name == "":
		errs["name"] = "Name is required"
	case !ValidName(f.Name):
		errs["name"] = "Please enter a valid name (letters only)"
	}

	switch {
	case f.Email == "":
		errs["email"] = "Email is required"
	case !ValidEmail(f.Email):
		errs["email"] = "Please enter a valid email address"
	}

	if !validTimeline(f.Timeline) {
		errs["timeline"] = "Please select a project timeline"
	}

	if !ValidPhone(f.Phone) {
		errs["phone"] = "Please enter a valid phone number"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
