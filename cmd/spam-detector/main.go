package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/adapters/source"
	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/di"
	"github.com/mikey/msg-spam-filter/internal/scoring"
	"github.com/mikey/msg-spam-filter/internal/utils"
	"github.com/mikey/msg-spam-filter/internal/whitelist"
)

func main() {
	flags, err := di.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(
		logger *zap.Logger,
		engine *scoring.Engine,
		trusted *whitelist.Checker,
		textProcessor *utils.TextProcessor,
	) error {
		defer logger.Sync()
		return run(flags, logger, engine, trusted, textProcessor, os.Stdin, os.Stdout)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// report is the -json output
type report struct {
	Message *core.Message        `json:"message"`
	Scores  core.Scores          `json:"scores"`
	Result  core.DetectionResult `json:"result"`
	Signals []scoring.Signal     `json:"signals"`
	Trusted bool                 `json:"trusted"`
}

func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	engine *scoring.Engine,
	trusted *whitelist.Checker,
	textProcessor *utils.TextProcessor,
	stdin io.Reader,
	stdout io.Writer,
) error {
	msg, err := readMessage(flags, logger, stdin)
	if err != nil {
		return err
	}
	msg.Body = textProcessor.Clean(msg.Body)

	startTime := time.Now()
	breakdown, result := engine.Explain(msg)
	duration := time.Since(startTime)
	msg.Result = &result

	r := report{
		Message: msg,
		Scores:  breakdown.Scores,
		Result:  result,
		Signals: breakdown.Signals,
		Trusted: trusted.IsWhitelisted(msg.Sender),
	}

	if flags.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(stdout, "\n=== Message Summary ===\n")
	fmt.Fprintf(stdout, "Source: %s\n", msg.Source)
	fmt.Fprintf(stdout, "From: %s\n", msg.Sender)
	if msg.Subject != "" {
		fmt.Fprintf(stdout, "Subject: %s\n", msg.Subject)
	}
	fmt.Fprintf(stdout, "Body: %s\n", textProcessor.Excerpt(msg.Body, 80))

	fmt.Fprintf(stdout, "\n=== Scores ===\n")
	fmt.Fprintf(stdout, "Spam: %.4f\n", r.Scores.Spam)
	fmt.Fprintf(stdout, "Phishing: %.4f\n", r.Scores.Phishing)
	fmt.Fprintf(stdout, "Financial: %.4f\n", r.Scores.Financial)

	fmt.Fprintf(stdout, "\n=== Signals ===\n")
	if len(r.Signals) == 0 {
		fmt.Fprintf(stdout, "(none)\n")
	}
	for _, s := range r.Signals {
		fmt.Fprintf(stdout, "+%.2f %-9s %s %s\n", s.Weight, s.Target, s.Name, s.Detail)
	}

	fmt.Fprintf(stdout, "\n=== Results ===\n")
	fmt.Fprintf(stdout, "Category: %s\n", result.Category)
	fmt.Fprintf(stdout, "Flagged: %t\n", result.IsFlagged)
	fmt.Fprintf(stdout, "Confidence: %.4f\n", result.Confidence)
	fmt.Fprintf(stdout, "Reason: %s\n", result.Reason)
	if r.Trusted {
		fmt.Fprintf(stdout, "Trusted sender: alerts would be suppressed\n")
	}
	fmt.Fprintf(stdout, "Processing time: %v\n", duration)

	return nil
}

// readMessage builds the message from -text, -file or stdin. With the email
// profile, file and stdin input is parsed as a full email.
func readMessage(flags *di.CLIFlags, logger *zap.Logger, stdin io.Reader) (*core.Message, error) {
	src := core.SourceSMS
	switch strings.ToLower(flags.Profile) {
	case "sms":
	case "email":
		src = core.SourceEmail
	default:
		return nil, fmt.Errorf("unknown profile %q (want sms or email)", flags.Profile)
	}

	msg := &core.Message{
		Source:     src,
		Sender:     flags.Sender,
		Subject:    flags.Subject,
		Body:       flags.Text,
		ReceivedAt: time.Now(),
	}
	if flags.Text != "" {
		return msg, nil
	}

	var input io.Reader = stdin
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
		logger.Info("Reading message from file", zap.String("file", flags.InputFile))
	} else {
		logger.Info("Reading message from stdin")
	}

	data, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if src != core.SourceEmail {
		msg.Body = strings.TrimRight(string(data), "\r\n")
		return msg, nil
	}

	raw, err := source.ParseEmail(data, flags.Sender, msg.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}
	parsed := core.FromRaw(raw)
	if flags.Sender != "" {
		parsed.Sender = flags.Sender
	}
	if flags.Subject != "" {
		parsed.Subject = flags.Subject
	}
	return parsed, nil
}
