// kinematics is a command-line client for the problem service's gRPC API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ashureev/kinematics-lab/internal/rpc"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	addr           string
	connectTimeout time.Duration
	debug          bool
	problemID      int64
	questionType   string
	tolerance      float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "kinematics",
		Short:        "practice kinematics problems against a running server",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "localhost:9090", "gRPC server address")
	rootCmd.PersistentFlags().DurationVar(&connectTimeout, "connect-timeout", 5*time.Second, "time to wait for the server")

	problemCmd := &cobra.Command{
		Use:   "problem",
		Short: "fetch a new problem",
		Args:  cobra.NoArgs,
		RunE:  runProblem,
	}
	problemCmd.Flags().BoolVar(&debug, "debug", false, "include answers (if the server allows it)")

	checkCmd := &cobra.Command{
		Use:   "check [value]",
		Short: "check an answer",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	checkCmd.Flags().Int64Var(&problemID, "id", 0, "problem id (random mode)")
	checkCmd.Flags().StringVar(&questionType, "type", "displacement", "question type")
	checkCmd.Flags().Float64Var(&tolerance, "tolerance", -1, "absolute tolerance (server default when negative)")

	quizCmd := &cobra.Command{
		Use:   "quiz",
		Short: "answer problems interactively until EOF",
		Args:  cobra.NoArgs,
		RunE:  runQuiz,
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "report server health",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}

	rootCmd.AddCommand(problemCmd, checkCmd, quizCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func dial() (*rpc.Client, error) {
	return rpc.Dial(addr, connectTimeout)
}

func runProblem(cmd *cobra.Command, _ []string) error {
	client, err := dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	p, err := client.GetProblem(cmd.Context(), debug)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), p)
}

func runCheck(cmd *cobra.Command, args []string) error {
	client, err := dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	fields := map[string]any{"type": questionType, "value": args[0]}
	if cmd.Flags().Changed("id") {
		fields["id"] = problemID
	}
	if tolerance >= 0 {
		fields["tolerance"] = tolerance
	}

	res, err := client.CheckAnswer(cmd.Context(), fields)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	client, err := dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return quiz(cmd.Context(), client, cmd.InOrStdin(), cmd.OutOrStdout())
}

func runHealth(cmd *cobra.Command, _ []string) error {
	client, err := dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	st, err := client.Health(cmd.Context())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), st.String())
	return err
}

// quiz asks one problem per line of input and grades each answer.
func quiz(ctx context.Context, client *rpc.Client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	attempted, correct := 0, 0

	for {
		p, err := client.GetProblem(ctx, false)
		if err != nil {
			return err
		}
		fields := p.GetFields()
		fmt.Fprintf(out, "\n%s\n> ", fields["question"].GetStringValue())

		if !scanner.Scan() {
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			continue
		}

		res, err := client.CheckAnswer(ctx, map[string]any{
			"id":    fields["id"].GetNumberValue(),
			"type":  "displacement",
			"value": answer,
		})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		attempted++
		verdict := "incorrect"
		if res.GetFields()["is_correct"].GetBoolValue() {
			correct++
			verdict = "correct"
		}
		fmt.Fprintf(out, "%s, displacement is %.2f m (score %d/%d)\n",
			verdict, res.GetFields()["correct"].GetNumberValue(), correct, attempted)
	}

	fmt.Fprintf(out, "\nfinal score %d/%d\n", correct, attempted)
	return scanner.Err()
}

func printJSON(w io.Writer, s *structpb.Struct) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.AsMap())
}
