package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/piston"
	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List courses",
	Args:  cobra.NoArgs,
	RunE:  runCourses,
}

var lessonsCmd = &cobra.Command{
	Use:   "lessons <course>",
	Short: "List the lessons of a course",
	Args:  cobra.ExactArgs(1),
	RunE:  runLessons,
}

var showSolution bool

var showCmd = &cobra.Command{
	Use:   "show <lesson>",
	Short: "Show a lesson's problem, starter code and visible tests",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var questionsDifficulty string

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List practice questions",
	Args:  cobra.NoArgs,
	RunE:  runQuestions,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and runtime versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printLanguages(cmd.OutOrStdout(), piston.SupportedLanguages())
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showSolution, "solution", false, "Include the reference solution")
	questionsCmd.Flags().StringVar(&questionsDifficulty, "difficulty", "", "Filter by difficulty (easy, medium, hard)")
}

type courseItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Difficulty  string `json:"difficulty"`
	Lessons     int    `json:"lessons"`
	Progress    int    `json:"progress"`
	Interactive bool   `json:"interactive"`
}

func runCourses(cmd *cobra.Command, args []string) error {
	client, err := daemon()
	if err != nil {
		return err
	}

	var resp struct {
		Courses []courseItem `json:"courses"`
	}
	if err := client.get(cmd.Context(), "/v1/courses", &resp); err != nil {
		return err
	}

	printCourses(cmd.OutOrStdout(), resp.Courses)
	return nil
}

func printCourses(out io.Writer, courses []courseItem) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLEVEL\tLESSONS\tPROGRESS\t")
	for _, c := range courses {
		mark := ""
		if c.Interactive {
			mark = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%d\t%d%%\t\n", c.ID, mark, c.Title, c.Difficulty, c.Lessons, c.Progress)
	}
	w.Flush()
	fmt.Fprintln(out, "\n* has interactive lessons")
}

type lessonItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
	Tests      int    `json:"tests"`
}

func runLessons(cmd *cobra.Command, args []string) error {
	client, err := daemon()
	if err != nil {
		return err
	}

	var resp struct {
		Lessons []lessonItem `json:"lessons"`
	}
	if err := client.get(cmd.Context(), "/v1/courses/"+url.PathEscape(args[0])+"/lessons", &resp); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLANGUAGE\tTESTS\t")
	for _, l := range resp.Lessons {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t\n", l.ID, l.Title, l.Language, l.Tests)
	}
	return w.Flush()
}

type lessonView struct {
	Lesson   domain.Lesson `json:"lesson"`
	Next     string        `json:"next"`
	Previous string        `json:"previous"`
}

func runShow(cmd *cobra.Command, args []string) error {
	client, err := daemon()
	if err != nil {
		return err
	}

	path := "/v1/lessons/" + url.PathEscape(args[0])
	if showSolution {
		path += "?solution=true"
	}

	var view lessonView
	if err := client.get(cmd.Context(), path, &view); err != nil {
		return err
	}

	printLesson(cmd.OutOrStdout(), &view)
	return nil
}

func printLesson(out io.Writer, view *lessonView) {
	l := &view.Lesson

	fmt.Fprintf(out, "%s (%s, %s)\n", l.Title, l.Problem.Language, l.Difficulty)
	fmt.Fprintln(out, strings.Repeat("=", len(l.Title)))
	fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(l.Problem.Statement))

	for i, ex := range l.Problem.Examples {
		fmt.Fprintf(out, "\nExample %d:\n  Input:  %s\n  Output: %s\n", i+1, ex.Input, ex.Output)
		if ex.Explanation != "" {
			fmt.Fprintf(out, "  %s\n", ex.Explanation)
		}
	}

	if len(l.Problem.Constraints) > 0 {
		fmt.Fprintln(out, "\nConstraints:")
		for _, c := range l.Problem.Constraints {
			fmt.Fprintf(out, "  - %s\n", c)
		}
	}

	fmt.Fprintf(out, "\nStarter code:\n%s\n", indent(l.Problem.StarterCode))

	fmt.Fprintf(out, "\nTests (%d):\n", len(l.Tests))
	for _, tc := range l.Tests {
		if tc.IsHidden {
			fmt.Fprintf(out, "  %s: hidden\n", tc.Name)
			continue
		}
		fmt.Fprintf(out, "  %s: %s -> %s\n", tc.Name, tc.Input, tc.ExpectedOutput)
	}

	if len(l.Hints) > 0 {
		fmt.Fprintln(out, "\nHints:")
		for _, h := range l.Hints {
			fmt.Fprintf(out, "  - %s\n", h)
		}
	}

	if l.Solution != "" {
		fmt.Fprintf(out, "\nSolution:\n%s\n", indent(l.Solution))
	}

	if view.Next != "" {
		fmt.Fprintf(out, "\nNext: %s\n", view.Next)
	}
}

func runQuestions(cmd *cobra.Command, args []string) error {
	client, err := daemon()
	if err != nil {
		return err
	}

	path := "/v1/questions"
	if questionsDifficulty != "" {
		path += "?difficulty=" + url.QueryEscape(questionsDifficulty)
	}

	var resp struct {
		Questions []struct {
			ID         string   `json:"id"`
			Number     int      `json:"number"`
			Title      string   `json:"title"`
			Difficulty string   `json:"difficulty"`
			Category   string   `json:"category"`
			Languages  []string `json:"languages"`
		} `json:"questions"`
	}
	if err := client.get(cmd.Context(), path, &resp); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTITLE\tDIFFICULTY\tLANGUAGES\t")
	for _, q := range resp.Questions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", q.Number, q.ID, q.Title, q.Difficulty, strings.Join(q.Languages, ", "))
	}
	return w.Flush()
}

func printLanguages(out io.Writer, languages []piston.LanguageInfo) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LANGUAGE\tRUNTIME\tVERSION\t")
	for _, l := range languages {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", l.Value, l.Runtime, l.Version)
	}
	w.Flush()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
