package customization

import (
	"sort"

	"github.com/tablemenu/api/internal/enum"
	"github.com/tablemenu/api/internal/money"
)

// Choice is a diner's pick of one option in one group.
type Choice struct {
	GroupID  int64
	OptionID int64
	Note     string
}

// Selection is the denormalized snapshot of a chosen option. It is copied
// onto cart lines and order lines so later catalog edits do not change it.
type Selection struct {
	GroupID    int64        `json:"groupId"`
	GroupName  string       `json:"groupName"`
	OptionID   int64        `json:"optionId"`
	OptionName string       `json:"optionName"`
	ExtraPrice money.Amount `json:"extraPrice"`
	Note       string       `json:"note,omitempty"`
}

// Extras returns the extra price of every selection, in order.
func Extras(selections []Selection) []money.Amount {
	extras := make([]money.Amount, len(selections))
	for i, s := range selections {
		extras[i] = s.ExtraPrice
	}
	return extras
}

// Apply folds choices into a selection list with Select, then checks that
// every required group is covered. The result follows group then option
// display order.
func Apply(groups []Group, choices []Choice) ([]Selection, error) {
	current := []Selection{}
	for _, c := range choices {
		next, err := Select(groups, current, c)
		if err != nil {
			return nil, err
		}
		current = next
	}

	if err := Validate(groups, current); err != nil {
		return nil, err
	}

	return order(groups, current), nil
}

// Select returns current with choice applied. In a single group the choice
// replaces any earlier pick; in a multiple group picking the same option twice
// keeps one entry. current is not modified.
func Select(groups []Group, current []Selection, choice Choice) ([]Selection, error) {
	g, ok := findGroup(groups, choice.GroupID)
	if !ok {
		return nil, ErrUnknownGroup
	}
	opt, ok := g.option(choice.OptionID)
	if !ok {
		return nil, ErrUnknownOption
	}
	if choice.Note != "" && !g.AllowNote {
		return nil, ErrNoteNotAllowed
	}

	sel := Selection{
		GroupID:    g.ID,
		GroupName:  g.Name,
		OptionID:   opt.ID,
		OptionName: opt.Name,
		ExtraPrice: opt.ExtraPrice,
		Note:       choice.Note,
	}

	next := make([]Selection, 0, len(current)+1)
	for _, s := range current {
		if s.GroupID != g.ID {
			next = append(next, s)
			continue
		}
		if g.SelectionType == enum.SelectionTypeSingle {
			continue
		}
		if s.OptionID == opt.ID {
			continue
		}
		next = append(next, s)
	}
	return append(next, sel), nil
}

// Deselect returns current without the (groupID, optionID) pair.
func Deselect(current []Selection, groupID, optionID int64) []Selection {
	next := make([]Selection, 0, len(current))
	for _, s := range current {
		if s.GroupID == groupID && s.OptionID == optionID {
			continue
		}
		next = append(next, s)
	}
	return next
}

// Validate reports the first required group, in display order, that has no selection.
func Validate(groups []Group, selections []Selection) error {
	picked := make(map[int64]bool, len(selections))
	for _, s := range selections {
		picked[s.GroupID] = true
	}
	for _, g := range groups {
		if g.IsRequired && !picked[g.ID] {
			return &MissingRequiredSelectionError{GroupID: g.ID, GroupName: g.Name}
		}
	}
	return nil
}

func findGroup(groups []Group, id int64) (Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

func order(groups []Group, selections []Selection) []Selection {
	type rank struct{ group, option int }
	ranks := make(map[[2]int64]rank, len(selections))
	for gi, g := range groups {
		for oi, o := range g.Options {
			ranks[[2]int64{g.ID, o.ID}] = rank{gi, oi}
		}
	}

	out := make([]Selection, len(selections))
	copy(out, selections)
	sort.SliceStable(out, func(a, b int) bool {
		ra := ranks[[2]int64{out[a].GroupID, out[a].OptionID}]
		rb := ranks[[2]int64{out[b].GroupID, out[b].OptionID}]
		if ra.group != rb.group {
			return ra.group < rb.group
		}
		return ra.option < rb.option
	})
	return out
}
