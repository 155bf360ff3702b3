package engine

import (
	"strconv"
	"strings"
)

// CPT section labels used for specialty/procedure consistency checks.
const (
	cptAnesthesia = "anesthesia"
	cptSurgery    = "surgery"
	cptRadiology  = "radiology"
	cptPathology  = "pathology"
	cptMedicine   = "medicine"
	cptEM         = "em"
	cptHCPCS      = "hcpcs"
	cptUnknown    = "unknown"
)

// cptCategory maps a normalized CPT/HCPCS code to its section.
func cptCategory(code string) string {
	if code == "" {
		return cptUnknown
	}
	if code[0] >= 'A' && code[0] <= 'Z' {
		return cptHCPCS
	}
	digits := code
	if last := code[len(code)-1]; last >= 'A' && last <= 'Z' {
		digits = code[:len(code)-1]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return cptUnknown
	}
	switch {
	case n >= 100 && n <= 1999:
		return cptAnesthesia
	case n >= 10004 && n <= 69990:
		return cptSurgery
	case n >= 70010 && n <= 79999:
		return cptRadiology
	case n >= 80047 && n <= 89398:
		return cptPathology
	case n >= 99202 && n <= 99499:
		return cptEM
	case (n >= 90281 && n <= 99199) || (n >= 99500 && n <= 99607):
		return cptMedicine
	}
	return cptUnknown
}

// specialtySections lists the CPT sections each provider specialty is
// expected to bill. Specialties outside the table are never flagged.
var specialtySections = map[string][]string{
	"anesthesiology":     {cptAnesthesia, cptEM},
	"radiology":          {cptRadiology},
	"pathology":          {cptPathology},
	"family medicine":    {cptEM, cptMedicine, cptHCPCS},
	"internal medicine":  {cptEM, cptMedicine, cptHCPCS},
	"pediatrics":         {cptEM, cptMedicine, cptHCPCS},
	"cardiology":         {cptEM, cptMedicine, cptRadiology},
	"psychiatry":         {cptEM, cptMedicine},
	"general surgery":    {cptSurgery, cptEM},
	"orthopedic surgery": {cptSurgery, cptEM, cptRadiology},
	"dermatology":        {cptSurgery, cptEM, cptPathology},
	"physical therapy":   {cptMedicine, cptHCPCS},
}

// specialtyMismatch reports whether a specialty is known to be inconsistent
// with the CPT section that was billed. The second return is false when the
// pairing cannot be judged (unknown specialty or section).
func specialtyMismatch(specialty, code string) (mismatch, known bool) {
	sections, ok := specialtySections[strings.ToLower(strings.TrimSpace(specialty))]
	if !ok {
		return false, false
	}
	section := cptCategory(code)
	if section == cptUnknown {
		return false, false
	}
	for _, s := range sections {
		if s == section {
			return false, true
		}
	}
	return true, true
}
