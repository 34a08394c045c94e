package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/driftwatch/internal/snapshot"
)

func jsonIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved analysis snapshots",
	}
	cmd.AddCommand(
		a.historyListCmd(),
		a.historyShowCmd(),
		a.historyDiffCmd(),
		a.historyTagCmd(),
		a.historyDeleteCmd(),
	)
	return cmd
}

func (a *app) historyListCmd() *cobra.Command {
	var (
		repo  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			entries := store.List(repo, limit)
			if len(entries) == 0 {
				fmt.Println("No snapshots found")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tREPOSITORY\tBRANCH\tCREATED\tSTATUS\tMODULES\tVIOLATIONS\tTAG")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					shortID(e.ID), e.Repository, e.Branch,
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					e.Status, e.Modules, e.Summary.Total, e.Tag)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Only list snapshots of this repository")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of snapshots (0 for all)")
	return cmd
}

func (a *app) historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <snapshot>",
		Short: "Print a snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			snap, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			data, err := jsonIndent(snap)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func (a *app) historyDiffCmd() *cobra.Command {
	var (
		jsonOut   bool
		failOnNew bool
	)

	cmd := &cobra.Command{
		Use:   "diff <from> [to]",
		Short: "Compare two snapshots",
		Long: "Compare two snapshots by ID, tag or ID prefix. With one argument " +
			"the snapshot is compared against its parent.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}

			var from, to *snapshot.Snapshot
			if len(args) == 2 {
				if from, err = store.Resolve(args[0]); err != nil {
					return err
				}
				if to, err = store.Resolve(args[1]); err != nil {
					return err
				}
			} else {
				if to, err = store.Resolve(args[0]); err != nil {
					return err
				}
				if to.ParentID == "" {
					return fmt.Errorf("snapshot %s has no parent", shortID(to.ID))
				}
				if from, err = store.Load(to.ParentID); err != nil {
					return err
				}
			}

			c := snapshot.Compare(from, to)
			if jsonOut {
				data, err := jsonIndent(c)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				fmt.Print(snapshot.FormatComparison(c))
			}

			if failOnNew && c.Regressed() {
				return errGateFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the comparison as JSON")
	cmd.Flags().BoolVar(&failOnNew, "fail-on-new", false, "Exit with status 2 when violations were added")
	return cmd
}

func (a *app) historyTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <snapshot> <tag>",
		Short: "Tag a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			snap, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := store.Tag(snap.ID, args[1]); err != nil {
				return err
			}
			fmt.Printf("Tagged %s as %s\n", shortID(snap.ID), args[1])
			return nil
		},
	}
}

func (a *app) historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <snapshot>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			snap, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(snap.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", shortID(snap.ID))
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
