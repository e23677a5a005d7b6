package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
)

// evalCommand creates the eval command: load a construction file,
// optionally move free points, and print the resulting positions.
func (c *CLI) evalCommand() *cobra.Command {
	var moves []string

	cmd := &cobra.Command{
		Use:   "eval <file>",
		Short: "Evaluate a construction and print element positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cons, err := construction.ReadFile(args[0])
			if err != nil {
				return err
			}

			for _, m := range moves {
				id, x, y, err := parseMove(m)
				if err != nil {
					return err
				}
				updated, err := cons.Move(id, x, y)
				if err != nil {
					return err
				}
				c.Logger.Debug("moved point", "id", id, "x", x, "y", y, "updated", updated)
			}

			printConstruction(cons)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&moves, "move", nil, "move a free point, e.g. --move 0=1.5,2")
	return cmd
}

// parseMove parses "id=x,y".
func parseMove(s string) (construction.ID, float64, float64, error) {
	fail := func() (construction.ID, float64, float64, error) {
		return 0, 0, 0, errors.New(errors.ErrCodeInvalidInput,
			"move %q must look like id=x,y", s)
	}
	idPart, coords, ok := strings.Cut(s, "=")
	if !ok {
		return fail()
	}
	xPart, yPart, ok := strings.Cut(coords, ",")
	if !ok {
		return fail()
	}
	id, err := strconv.Atoi(strings.TrimSpace(idPart))
	if err != nil {
		return fail()
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xPart), 64)
	if err != nil {
		return fail()
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(yPart), 64)
	if err != nil {
		return fail()
	}
	return construction.ID(id), x, y, nil
}

// printConstruction prints one line per element.
func printConstruction(c *construction.Construction) {
	c.Elements(func(e *construction.Element) {
		style := styleDependent
		if e.IsFree() {
			style = styleFreePoint
		}

		var pos string
		switch {
		case !e.Kind().IsPoint():
			parents := make([]string, len(e.Parents()))
			for i, p := range e.Parents() {
				parents[i] = strconv.Itoa(int(p))
			}
			pos = StyleDim.Render("(" + strings.Join(parents, ", ") + ")")
		case e.Pos().IsInfinite():
			pos = StyleWarning.Render("at infinity")
		default:
			pos = StyleValue.Render(fmt.Sprintf("(%g, %g)", e.Pos().X, e.Pos().Y))
		}

		fmt.Printf("%s %s %s\n",
			StyleDim.Render(fmt.Sprintf("%3d", e.ID())),
			style.Width(14).Render(e.Kind().String()),
			pos)
	})
}
