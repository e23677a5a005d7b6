package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/store"
)

// storeCommand creates the store command group for the document store.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored constructions",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storePushCommand())
	cmd.AddCommand(c.storePullCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// openStore builds the configured store backend for one command run.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.newStore(ctx, cfg)
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored constructions",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			names, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("Store is empty")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func (c *CLI) storePushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push <name> <file>",
		Short: "Store a construction file under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cons, err := construction.ReadFile(args[1])
			if err != nil {
				return err
			}
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			if err := st.Save(cmd.Context(), args[0], construction.ToDocument(cons)); err != nil {
				return err
			}
			printSuccess("Stored %s (%d elements)", args[0], cons.Len())
			return nil
		},
	}
}

func (c *CLI) storePullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <name> <file>",
		Short: "Write a stored construction to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			doc, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cons, err := construction.FromDocument(doc)
			if err != nil {
				return err
			}
			if err := construction.WriteFile(cons, args[1]); err != nil {
				return err
			}
			printSuccess("Pulled %s", args[0])
			printFile(args[1])
			return nil
		},
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored construction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}
