package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/budget"
	"github.com/theirongolddev/hbudget/internal/model"
)

var flagUploadAttach string

var uploadCmd = &cobra.Command{
	Use:   "upload <image>",
	Short: "Upload a receipt image and print its URL",
	Long: "Upload an image (png, jpg, jpeg, gif) to the budget server. With --attach the\n" +
		"returned URL is stored on that budget's image_url field.",
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&flagUploadAttach, "attach", "", "Budget id to attach the image to")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0]) //nolint:gosec // user-chosen upload file
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	s, done := newStore(consoleNotifier())
	defer done()

	if err := s.UploadImage(cmd.Context(), &budget.FileHandle{Name: filepath.Base(args[0]), Reader: f}); err != nil {
		return err
	}
	url := s.ImageURL()

	if flagUploadAttach != "" {
		if err := s.Update(cmd.Context(), flagUploadAttach, model.Fields{model.FieldImageURL: url}); err != nil {
			return err
		}
	}

	if flagJSON {
		return printJSON(map[string]string{"image_url": url})
	}
	fmt.Println(url)
	return nil
}
