package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/usecase"
)

// runWatch feeds every line of in to a suggestion session as if typed, and
// prints each state change. It returns once input is exhausted and the last
// request settled.
func runWatch(ctx context.Context, in io.Reader, out io.Writer, suggest usecase.SuggestFunc, debounce time.Duration) error {
	session := usecase.NewSuggestionSession(ctx, suggest, debounce, func(state usecase.SessionState, query string, result *domain.SuggestResult) {
		printState(out, state, query, result)
	})
	defer session.Close()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		session.Input(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	session.Wait()
	return nil
}

func printState(out io.Writer, state usecase.SessionState, query string, result *domain.SuggestResult) {
	switch state {
	case usecase.SessionSuggested:
		fmt.Fprintf(out, "[%s] %q: %d match(es)\n", state, query, len(result.Suggestions))
		for _, s := range result.Suggestions {
			line := fmt.Sprintf("  %.3f  %s", s.Confidence, s.Name)
			if s.Brand != nil {
				line += " (" + *s.Brand + ")"
			}
			if s.BestPrice != nil {
				line += "  from " + s.BestPrice.StringFixed(2)
				if s.BestVendorName != nil {
					line += " by " + *s.BestVendorName
				}
			}
			fmt.Fprintln(out, line)
		}
	case usecase.SessionIdle:
		fmt.Fprintf(out, "[%s]\n", state)
	default:
		fmt.Fprintf(out, "[%s] %q\n", state, query)
	}
}
