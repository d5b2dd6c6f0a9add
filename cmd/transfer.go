package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [student]",
	Short: "Export one learner, or all learners as an archive",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")

		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		var data []byte
		if len(args) == 1 {
			data, err = e.tutor.Export(cmd.Context(), args[0])
		} else {
			data, err = e.tutor.ExportAll(cmd.Context())
		}
		if err != nil {
			return err
		}

		if path == "" || path == "-" {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a learner or an archive produced by export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read import: %w", err)
		}

		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		out := cmd.OutOrStdout()

		var probe struct {
			Students json.RawMessage `json:"students"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return fmt.Errorf("decode import: %w", err)
		}

		if probe.Students == nil {
			st, dropped, err := e.tutor.Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %s\n", st.StudentID)
			if len(dropped) > 0 {
				fmt.Fprintf(out, "  dropped unknown knowledge points %v\n", dropped)
			}
			return nil
		}

		r, err := e.tutor.ImportAll(cmd.Context(), data)
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			failed := make(map[string]string, len(r.Failed))
			for id, ferr := range r.Failed {
				failed[id] = ferr.Error()
			}
			if err := writeJSON(out, map[string]any{"imported": r.Imported, "dropped": r.Dropped, "failed": failed}); err != nil {
				return err
			}
			return r.Err()
		}
		fmt.Fprintf(out, "imported %d learners\n", len(r.Imported))
		for id, ids := range r.Dropped {
			fmt.Fprintf(out, "  %s: dropped unknown knowledge points %v\n", id, ids)
		}
		return r.Err()
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
}
