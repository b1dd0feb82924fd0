package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/runner"
	"github.com/spf13/cobra"
)

var (
	testQuestion bool
	testLanguage string
	execStdin    string
)

var testCmd = &cobra.Command{
	Use:   "test <lesson> <file>",
	Short: "Grade a source file against a lesson's test cases",
	Long: `Grade a source file against every test case of a lesson.

With --question the first argument names a practice question instead, and
--language selects the submission language (default python).

Exits non-zero unless every test passes.`,
	Args: cobra.ExactArgs(2),
	RunE: runTest,
}

var execCmd = &cobra.Command{
	Use:   "exec <language> <file>",
	Short: "Run a source file once and print its output",
	Args:  cobra.ExactArgs(2),
	RunE:  runExec,
}

func init() {
	testCmd.Flags().BoolVar(&testQuestion, "question", false, "Grade against a practice question")
	testCmd.Flags().StringVar(&testLanguage, "language", "", "Submission language for questions")
	execCmd.Flags().StringVar(&execStdin, "stdin", "", "File whose contents are passed on stdin")
}

// runView is the body of a run response
type runView struct {
	ID      string              `json:"id"`
	Status  string              `json:"status"`
	Error   string              `json:"error"`
	Results []domain.TestResult `json:"results"`
	Summary string              `json:"summary"`
	Passed  int                 `json:"passed"`
	Total   int                 `json:"total"`
}

func runTest(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	client, err := daemon()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	create := map[string]string{"lesson_id": args[0]}
	if testQuestion {
		create = map[string]string{"question_id": args[0], "language": testLanguage}
	}

	var sess struct {
		ID string `json:"id"`
	}
	if err := client.post(ctx, "/v1/sessions", create, &sess); err != nil {
		return err
	}
	defer client.delete(ctx, "/v1/sessions/"+url.PathEscape(sess.ID))

	source := string(code)
	var run runView
	path := "/v1/sessions/" + url.PathEscape(sess.ID) + "/runs?wait=true"
	if err := client.post(ctx, path, map[string]*string{"code": &source}, &run); err != nil {
		return err
	}

	printRun(cmd.OutOrStdout(), &run)

	if run.Total == 0 || run.Passed != run.Total {
		return fmt.Errorf("%s", run.Summary)
	}
	return nil
}

func printRun(out io.Writer, run *runView) {
	for _, res := range run.Results {
		if res.Passed {
			fmt.Fprintf(out, "✓ %s\n", res.Name)
			continue
		}

		fmt.Fprintf(out, "✗ %s", res.Name)
		if res.Kind != "" {
			fmt.Fprintf(out, " (%s)", res.Kind)
		}
		fmt.Fprintln(out)

		if res.Error != "" {
			fmt.Fprintf(out, "%s\n", indent(res.Error))
			continue
		}
		fmt.Fprintf(out, "    expected: %s\n", strings.TrimSpace(res.Expected))
		fmt.Fprintf(out, "    actual:   %s\n", strings.TrimSpace(res.Output))
	}

	if run.Error != "" {
		fmt.Fprintf(out, "\nRun error: %s\n", run.Error)
	}
	fmt.Fprintf(out, "\n%s\n", run.Summary)
}

func runExec(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	var stdin []byte
	if execStdin != "" {
		if stdin, err = os.ReadFile(execStdin); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	client, err := daemon()
	if err != nil {
		return err
	}

	var out runner.Output
	req := map[string]string{"language": args[0], "code": string(code), "stdin": string(stdin)}
	if err := client.post(cmd.Context(), "/v1/execute", req, &out); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprint(w, out.Stdout)
	if out.Error != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), out.Error)
		return fmt.Errorf("%s program failed", args[0])
	}
	return nil
}
