package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), *configPath, consoleNotifier{out: os.Stderr})
			if err != nil {
				return err
			}
			defer env.close()

			recordings := env.library.Recordings()
			if len(recordings) == 0 {
				fmt.Println("No recordings saved yet.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCREATED\tCOMMANDS")
			for _, rec := range recordings {
				fmt.Fprintf(w, "%s\t%s\t%d\n", rec.Name, rec.CreatedAt.Local().Format("2006-01-02 15:04"), len(rec.Commands))
			}
			return w.Flush()
		},
	}
}

func newShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print the commands of a saved recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), *configPath, consoleNotifier{out: os.Stderr})
			if err != nil {
				return err
			}
			defer env.close()

			rec, ok := env.library.Find(args[0])
			if !ok {
				return fmt.Errorf("no recording named %q", args[0])
			}
			fmt.Printf("# %s (%s)\n", rec.Name, rec.CreatedAt.Local().Format("2006-01-02 15:04"))
			for _, c := range rec.Commands {
				fmt.Println(c.Command)
			}
			return nil
		},
	}
}
