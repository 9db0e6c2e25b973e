package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/shelf/internal/content"
)

var importCmd = &cobra.Command{
	Use:   "import <bundle.json>...",
	Short: "Import course chunks and questions from JSON bundles",
	Long: "Import reads course bundles (a course, its chunks and its questions) and upserts them.\n" +
		"Re-importing a bundle keeps learner progress and bumps the course's content version.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		for _, path := range args {
			b, err := readBundle(path)
			if err != nil {
				return err
			}
			res, err := st.ImportBundle(cmd.Context(), b)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			fmt.Printf("%s: course %s, %d chunks, %d questions\n",
				path, b.Course.ID, res.Chunks, res.Questions)
		}
		return nil
	},
}

func readBundle(path string) (*content.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	b, err := content.ReadBundle(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
