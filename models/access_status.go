package models

// AccessStatus classifies whether a record is openly downloadable or subject
// to controlled-access authorization. Unknown is a valid terminal state: the
// external lookup failed or the accession was not resolvable.
type AccessStatus int

const (
	AccessUnknown AccessStatus = iota
	AccessPublic
	AccessControlled
)

func (s AccessStatus) String() string {
	switch s {
	case AccessPublic:
		return "public"
	case AccessControlled:
		return "controlled"
	default:
		return "unknown"
	}
}
