package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/iterations-backend/internal/app"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/platform/shutdown"
	"github.com/yungbote/iterations-backend/internal/services"
)

var (
	auditUsers []string
	auditLimit int
	auditJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "lineage-audit",
	Short: "Check stored iteration lineages for version gaps and counter drift",
	Long: `Reads every lineage of the selected users and reports:
  version_gap, count_mismatch, multiple_active, liked_flag, nit_overflow.

Nothing is modified. Exits with status 2 when issues are found.`,
	SilenceUsage: true,
	RunE:         runAudit,
}

func init() {
	rootCmd.Flags().StringSliceVar(&auditUsers, "user", nil, "user id to audit (repeatable); all users when omitted")
	rootCmd.Flags().IntVar(&auditLimit, "limit", 0, "limit number of users audited")
	rootCmd.Flags().BoolVar(&auditJSON, "json", false, "print issues as JSON lines")
}

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runAudit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := app.New(ctx)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer application.Close()

	ids, err := parseUserIDs(auditUsers)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		var rows []*types.User
		if err := application.DB.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		for _, u := range rows {
			ids = append(ids, u.ID)
		}
	}
	if auditLimit > 0 && len(ids) > auditLimit {
		ids = ids[:auditLimit]
	}

	auditor := services.NewLineageAuditor(services.LineageAuditorDeps{
		Log:         application.Log,
		Exercises:   application.Repos.UserExercise,
		Submissions: application.Repos.Submission,
		Likes:       application.Repos.Like,
		Comments:    application.Repos.Comment,
	})
	total, err := audit(ctx, auditor, ids, cmd.OutOrStdout(), auditJSON)
	if err != nil {
		return err
	}
	if total > 0 {
		application.Close()
		os.Exit(2)
	}
	return nil
}

func parseUserIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil || id == uuid.Nil {
			return nil, fmt.Errorf("invalid user id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type issueLine struct {
	UserID       uuid.UUID `json:"user_id"`
	Problem      string    `json:"problem"`
	Kind         string    `json:"kind"`
	Detail       string    `json:"detail"`
	SubmissionID uuid.UUID `json:"submission_id,omitempty"`
}

func audit(ctx context.Context, auditor services.LineageAuditor, ids []uuid.UUID, out io.Writer, asJSON bool) (int, error) {
	enc := json.NewEncoder(out)
	total := 0
	for _, id := range ids {
		issues, err := auditor.AuditUser(ctx, id)
		if err != nil {
			return total, fmt.Errorf("audit %s: %w", id, err)
		}
		for _, is := range issues {
			if asJSON {
				if err := enc.Encode(issueLine{
					UserID:       id,
					Problem:      is.Problem.String(),
					Kind:         is.Kind,
					Detail:       is.Detail,
					SubmissionID: is.SubmissionID,
				}); err != nil {
					return total, err
				}
				continue
			}
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", id, is.Problem, is.Kind, is.Detail)
		}
		total += len(issues)
	}
	if !asJSON {
		fmt.Fprintf(out, "audited %d users, %d issues\n", len(ids), total)
	}
	return total, nil
}
