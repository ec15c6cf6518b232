package hierarchy

import "fmt"

// IssueKind tags the variant of an Issue
type IssueKind string

const (
	IssueMissingLoc2      IssueKind = "missing_loc2"
	IssueMissingLoc3      IssueKind = "missing_loc3"
	IssueMisplacedLoc4    IssueKind = "misplaced_loc4"
	IssueLoc2NameMismatch IssueKind = "loc2_name_mismatch"
	IssueLoc3NameMismatch IssueKind = "loc3_name_mismatch"
)

// IssueKinds lists every kind in report order
var IssueKinds = []IssueKind{
	IssueMissingLoc2,
	IssueMissingLoc3,
	IssueMisplacedLoc4,
	IssueLoc2NameMismatch,
	IssueLoc3NameMismatch,
}

// Issue is one discrepancy between the canonical and the stored hierarchy.
// Which fields are set depends on Kind.
type Issue struct {
	Kind         IssueKind `json:"type" yaml:"type"`
	Loc1         string    `json:"loc1" yaml:"loc1"`
	Loc2         string    `json:"loc2,omitempty" yaml:"loc2,omitempty"`
	Loc3         string    `json:"loc3,omitempty" yaml:"loc3,omitempty"`
	Loc4         string    `json:"loc4,omitempty" yaml:"loc4,omitempty"`
	Building     string    `json:"bygningsnr,omitempty" yaml:"bygningsnr,omitempty"`
	StreetID     int64     `json:"street_id,omitempty" yaml:"street_id,omitempty"`
	StreetNumber string    `json:"street_number,omitempty" yaml:"street_number,omitempty"`
	Expected     string    `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual       string    `json:"actual,omitempty" yaml:"actual,omitempty"`
}

// Describe renders the issue as one report line
func (i Issue) Describe() string {
	switch i.Kind {
	case IssueMissingLoc2:
		return fmt.Sprintf("Property %s needs building %s for bygningsnr %s", i.Loc1, i.Expected, i.Building)
	case IssueMissingLoc3:
		return fmt.Sprintf("Building %s-%s needs entrance %s for street %d number %s",
			i.Loc1, i.Loc2, i.Expected, i.StreetID, i.StreetNumber)
	case IssueMisplacedLoc4:
		return fmt.Sprintf("Unit %s (bygningsnr %s, street %d/%s) is in %s but belongs in %s",
			i.Loc4, i.Building, i.StreetID, i.StreetNumber, i.Actual, i.Expected)
	case IssueLoc2NameMismatch:
		return fmt.Sprintf("Building %s-%s is named %q, expected %q", i.Loc1, i.Loc2, i.Actual, i.Expected)
	case IssueLoc3NameMismatch:
		return fmt.Sprintf("Entrance %s-%s-%s is named %q, expected %q", i.Loc1, i.Loc2, i.Loc3, i.Actual, i.Expected)
	}
	return string(i.Kind)
}

// CountIssues counts issues per kind
func CountIssues(issues []Issue) map[IssueKind]int {
	counts := make(map[IssueKind]int, len(IssueKinds))
	for _, issue := range issues {
		counts[issue.Kind]++
	}
	return counts
}
