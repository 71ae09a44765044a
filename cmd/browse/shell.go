package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/matst80/slask-catalog/pkg/catalog"
	"github.com/matst80/slask-catalog/pkg/fetch"
	"github.com/matst80/slask-catalog/pkg/query"
	"github.com/matst80/slask-catalog/pkg/types"
)

var errQuit = errors.New("quit")

var sortAliases = map[string]types.SortOption{
	"all":        types.SortAll,
	"new":        types.SortNew,
	"comingsoon": types.SortComingSoon,
}

// History is the part of the location the shell drives directly.
type History interface {
	Back() bool
	Forward() bool
	String() string
}

type shell struct {
	view    *catalog.View
	history History
	out     io.Writer
}

func newShell(view *catalog.View, history History, out io.Writer) *shell {
	return &shell{view: view, history: history, out: out}
}

func (s *shell) run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		err := s.exec(scanner.Text())
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		fmt.Fprint(s.out, "> ")
	}
}

func toggle(values []string, v string) []string {
	if i := slices.Index(values, v); i >= 0 {
		return slices.Delete(slices.Clone(values), i, i+1)
	}
	return append(slices.Clone(values), v)
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one number")
	}
	return strconv.Atoi(args[0])
}

func (s *shell) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	state := s.view.State()

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "min", "max":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		if cmd == "min" {
			s.view.SetPriceMin(v)
		} else {
			s.view.SetPriceMax(v)
		}
	case "apply":
		if !s.view.FlushPrice() {
			fmt.Fprintln(s.out, "nothing to apply")
		}
	case "type":
		name := strings.Join(args, " ")
		cats := s.view.Categories()
		if _, ok := cats.Resolve(name); !ok {
			return fmt.Errorf("unknown category %q", name)
		}
		names := toggle(state.Types, strings.ToLower(strings.TrimSpace(name)))
		s.view.Mutate(query.Patch{query.TypeNames(cats, names...), query.Page(0)}, true)
	case "size":
		if len(args) == 0 {
			return fmt.Errorf("missing size")
		}
		s.view.Mutate(query.Patch{query.Sizes(toggle(state.Sizes, args[0])...), query.Page(0)}, true)
	case "color":
		if len(args) == 0 {
			return fmt.Errorf("missing color")
		}
		s.view.Mutate(query.Patch{query.Colors(toggle(state.Colors, args[0])...), query.Page(0)}, true)
	case "sort":
		if len(args) != 1 {
			return fmt.Errorf("sort needs one of New, ComingSoon, All")
		}
		opt, ok := sortAliases[strings.ToLower(args[0])]
		if !ok {
			return fmt.Errorf("unknown sort %q", args[0])
		}
		s.view.Mutate(query.Patch{query.Sort(opt), query.Page(0)}, true)
	case "page":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		s.view.Mutate(query.Patch{query.Page(v)}, true)
	case "back":
		if !s.history.Back() {
			fmt.Fprintln(s.out, "no previous entry")
		}
	case "forward":
		if !s.history.Forward() {
			fmt.Fprintln(s.out, "no next entry")
		}
	case "reset":
		s.view.Reset()
	case "show":
		s.show()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (s *shell) show() {
	state := s.view.State()
	lo, hi := s.view.Price()
	fmt.Fprintf(s.out, "query: ?%s\n", s.history.String())
	fmt.Fprintf(s.out, "price: %d-%d (slider %d-%d)\n", state.MinVal, state.MaxVal, lo, hi)
	fmt.Fprintf(s.out, "types: %v sizes: %v colors: %v sort: %s page: %d\n",
		state.Types, state.Sizes, state.Colors, state.Sort, state.Page)
	s.printResults(s.view.Results())
}

func (s *shell) printResults(v fetch.View) {
	if v.Loading {
		fmt.Fprintln(s.out, "loading...")
		return
	}
	fmt.Fprintf(s.out, "page %d of %d, %d items\n", v.State.Page+1, v.TotalPages, len(v.Items))
	for _, item := range v.Items {
		fmt.Fprintf(s.out, "  %s  %-40s %d\n", item.Id, item.Name, item.Price)
	}
}
