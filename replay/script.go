// Package replay drives a session from a scripted list of player actions.
package replay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/rustyeddy/papertrader/market"
)

// Action is one scripted player action.
//
// Script rows look like:
//
//	bar,action,arg1,arg2
//	0,BUY,10.50,1000
//	3,SELL,11.20,500
//	4,CANCEL,2
//	5,SPEED,4
//	6,PAUSE
//	6,RESUME
//	9,END
//
// CANCEL refers to the n-th successfully placed order of the script,
// counting from 1.
type Action struct {
	Line int
	Bar  int
	Kind string

	Side     market.Side
	Price    float64
	Quantity int64
	Ref      int
	Speed    int
}

func (a Action) String() string {
	switch a.Kind {
	case "BUY", "SELL":
		return fmt.Sprintf("%s %d @ %.3f", a.Kind, a.Quantity, a.Price)
	case "CANCEL":
		return fmt.Sprintf("CANCEL #%d", a.Ref)
	case "SPEED":
		return fmt.Sprintf("SPEED %d", a.Speed)
	}
	return a.Kind
}

// Script is a parsed action list grouped by bar index.
type Script struct {
	actions map[int][]Action
}

// At returns the actions for bar in file order.
func (s Script) At(bar int) []Action {
	return s.actions[bar]
}

// Bars lists the bar indexes that carry actions, ascending.
func (s Script) Bars() []int {
	out := make([]int, 0, len(s.actions))
	for b := range s.actions {
		out = append(out, b)
	}
	slices.Sort(out)
	return out
}

func (s Script) Len() int {
	n := 0
	for _, as := range s.actions {
		n += len(as)
	}
	return n
}

// Load parses the script at path.
func Load(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a CSV script. Lines starting with '#' are comments and a
// header row starting with "bar" ahead of the first action is skipped. Any
// malformed row fails the whole script. Errors and Action.Line use line
// numbers of the input.
func Parse(r io.Reader) (Script, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	s := Script{actions: make(map[int][]Action)}
	header := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return Script{}, err
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}
		line, _ := cr.FieldPos(0)
		if header && strings.EqualFold(row[0], "bar") {
			header = false
			continue
		}
		header = false

		a, err := parseRow(row)
		if err != nil {
			return Script{}, fmt.Errorf("line %d: %w", line, err)
		}
		a.Line = line
		s.actions[a.Bar] = append(s.actions[a.Bar], a)
	}
}

func parseRow(row []string) (Action, error) {
	if len(row) < 2 {
		return Action{}, fmt.Errorf("bad row (need at least bar,action): %v", row)
	}
	bar, err := strconv.Atoi(row[0])
	if err != nil || bar < 0 {
		return Action{}, fmt.Errorf("bad bar %q", row[0])
	}
	a := Action{Bar: bar, Kind: strings.ToUpper(row[1])}
	args := row[2:]

	switch a.Kind {
	case "BUY", "SELL":
		if len(args) < 2 {
			return Action{}, fmt.Errorf("%s: need arg1=price arg2=quantity", a.Kind)
		}
		a.Side = market.Side(strings.ToLower(a.Kind))
		if a.Price, err = strconv.ParseFloat(args[0], 64); err != nil {
			return Action{}, fmt.Errorf("%s: bad price %q: %w", a.Kind, args[0], err)
		}
		if a.Quantity, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return Action{}, fmt.Errorf("%s: bad quantity %q: %w", a.Kind, args[1], err)
		}

	case "CANCEL":
		if len(args) < 1 {
			return Action{}, fmt.Errorf("CANCEL: need arg1=order number")
		}
		if a.Ref, err = strconv.Atoi(args[0]); err != nil || a.Ref < 1 {
			return Action{}, fmt.Errorf("CANCEL: bad order number %q", args[0])
		}

	case "SPEED":
		if len(args) < 1 {
			return Action{}, fmt.Errorf("SPEED: need arg1=multiplier")
		}
		if a.Speed, err = strconv.Atoi(args[0]); err != nil {
			return Action{}, fmt.Errorf("SPEED: bad multiplier %q: %w", args[0], err)
		}

	case "PAUSE", "RESUME", "END":

	default:
		return Action{}, fmt.Errorf("unknown action %q", row[1])
	}
	return a, nil
}
