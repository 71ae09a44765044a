package types

// SortOption is the user facing sort value, stored in the query as its label.
type SortOption string

const (
	SortAll        SortOption = "Все"
	SortNew        SortOption = "Новинки"
	SortComingSoon SortOption = "Скоро в продаже"
)

// Status is the product status filter understood by the catalog api.
type Status string

const (
	StatusNone       Status = ""
	StatusNew        Status = "NEW"
	StatusComingSoon Status = "COMING_SOON"
)

var sortOptions = []SortOption{SortAll, SortNew, SortComingSoon}

func SortOptions() []SortOption {
	return append([]SortOption(nil), sortOptions...)
}

// ParseSort accepts only known labels, everything else is SortAll.
func ParseSort(raw string) SortOption {
	for _, s := range sortOptions {
		if string(s) == raw {
			return s
		}
	}
	return SortAll
}

func (s SortOption) IsDefault() bool {
	return s == SortAll || s == ""
}

func (s SortOption) Status() Status {
	switch s {
	case SortNew:
		return StatusNew
	case SortComingSoon:
		return StatusComingSoon
	default:
		return StatusNone
	}
}
