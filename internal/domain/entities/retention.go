package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// RetentionPolicy names the rule that picks the surviving member of a group
type RetentionPolicy string

const (
	KeepIndex  RetentionPolicy = "index"
	KeepNewest RetentionPolicy = "newest"
	KeepOldest RetentionPolicy = "oldest"
	KeepFirst  RetentionPolicy = "first"
	KeepLast   RetentionPolicy = "last"
)

// RetentionRule selects which member of a group is kept during deletion.
// Index is only consulted for KeepIndex.
type RetentionRule struct {
	Policy RetentionPolicy `json:"policy"`
	Index  int             `json:"index,omitempty"`
}

// KeepAt returns a rule retaining the member at the given index
func KeepAt(index int) RetentionRule {
	return RetentionRule{Policy: KeepIndex, Index: index}
}

// ParseRetentionRule parses "newest", "oldest", "first", "last", "index:N" or a bare "N"
func ParseRetentionRule(value string) (RetentionRule, error) {
	value = strings.ToLower(strings.TrimSpace(value))

	switch RetentionPolicy(value) {
	case KeepNewest, KeepOldest, KeepFirst, KeepLast:
		return RetentionRule{Policy: RetentionPolicy(value)}, nil
	}

	raw := strings.TrimPrefix(value, string(KeepIndex)+":")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return RetentionRule{}, fmt.Errorf("%w: %q", ErrUnknownRetentionPolicy, value)
	}
	if index < 0 {
		return RetentionRule{}, fmt.Errorf("%w: %d", ErrRetentionIndex, index)
	}
	return KeepAt(index), nil
}

// String renders the rule in the form accepted by ParseRetentionRule
func (r RetentionRule) String() string {
	if r.Policy == KeepIndex || r.Policy == "" {
		return fmt.Sprintf("%s:%d", KeepIndex, r.Index)
	}
	return string(r.Policy)
}

// Select returns the index of the member to retain
func (r RetentionRule) Select(group *DuplicateGroup) (int, error) {
	if group == nil || len(group.Files) == 0 {
		return -1, fmt.Errorf("%w: empty group", ErrInvalidGroup)
	}

	switch r.Policy {
	case KeepIndex, "":
		if r.Index < 0 || r.Index >= len(group.Files) {
			return -1, fmt.Errorf("%w: %d not in [0, %d)", ErrRetentionIndex, r.Index, len(group.Files))
		}
		return r.Index, nil
	case KeepNewest:
		return group.GetNewestIndex(), nil
	case KeepOldest:
		return group.GetOldestIndex(), nil
	case KeepFirst:
		return 0, nil
	case KeepLast:
		return len(group.Files) - 1, nil
	default:
		return -1, fmt.Errorf("%w: %q", ErrUnknownRetentionPolicy, r.Policy)
	}
}
