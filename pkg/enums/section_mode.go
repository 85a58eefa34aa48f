package enums

// SectionMode is the declared selection mode of a customization section.
type SectionMode string

const (
	SectionModeSingle   SectionMode = "single"
	SectionModeMultiple SectionMode = "multiple"
)

var validSectionModes = []SectionMode{
	SectionModeSingle,
	SectionModeMultiple,
}

func (s SectionMode) String() string {
	return string(s)
}

func (s SectionMode) IsValid() bool {
	return isOneOf(s, validSectionModes)
}

func ParseSectionMode(value string) (SectionMode, error) {
	return parseOneOf(value, validSectionModes, "section mode")
}
