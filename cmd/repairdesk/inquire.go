package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/repairdesk/plugin/support/inquiry"
	"github.com/hrygo/repairdesk/server/gateway"
)

var inquireFlags struct {
	name         string
	phone        string
	email        string
	prefecture   string
	category     string
	detail       string
	partner      string
	notify       string
	note         string
	skipAnalysis bool
}

var inquireCmd = &cobra.Command{
	Use:   "inquire",
	Short: "Send a repair inquiry to a partner shop",
	Long: `Requests an AI diagnosis and a cost estimate for the symptom in parallel,
then submits the inquiry and optionally sends a follow-up note.
A failed diagnosis or estimate does not prevent submission.`,
	RunE: runInquire,
}

func init() {
	f := inquireCmd.Flags()
	f.StringVar(&inquireFlags.name, "name", "", "customer name")
	f.StringVar(&inquireFlags.phone, "phone", "", "phone number")
	f.StringVar(&inquireFlags.email, "email", "", "email address (optional)")
	f.StringVar(&inquireFlags.prefecture, "prefecture", "", "prefecture")
	f.StringVar(&inquireFlags.category, "category", "", "symptom category")
	f.StringVar(&inquireFlags.detail, "detail", "", "symptom detail")
	f.StringVar(&inquireFlags.partner, "partner", "", "partner shop reference id")
	f.StringVar(&inquireFlags.notify, "notify", "email", "notification method: email or line")
	f.StringVar(&inquireFlags.note, "note", "", "follow-up note sent after submission")
	f.BoolVar(&inquireFlags.skipAnalysis, "skip-analysis", false, "skip diagnosis and cost estimate")
}

func runInquire(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	st, identity, err := openIdentity()
	if err != nil {
		return err
	}
	defer st.Close()

	orch := inquiry.New(gateway.NewClientFromProfile(instanceProfile), inquiry.Draft{
		CustomerName:       inquireFlags.name,
		Phone:              inquireFlags.phone,
		Email:              inquireFlags.email,
		Prefecture:         inquireFlags.prefecture,
		SymptomCategory:    inquireFlags.category,
		SymptomDetail:      inquireFlags.detail,
		PartnerReferenceID: inquireFlags.partner,
		NotificationMethod: inquiry.NotificationMethod(inquireFlags.notify),
	}, inquiry.WithSession(identity))
	defer orch.Close()

	if !inquireFlags.skipAnalysis && strings.TrimSpace(inquireFlags.detail) != "" {
		// Each step reports its own failure; neither cancels the other.
		var g errgroup.Group
		var diagnosis *inquiry.DiagnosisResult
		var estimate *inquiry.CostEstimate
		var diagErr, estErr error
		g.Go(func() error {
			diagnosis, diagErr = orch.RequestDiagnosis(ctx)
			return nil
		})
		g.Go(func() error {
			estimate, estErr = orch.RequestCostEstimate(ctx)
			return nil
		})
		_ = g.Wait()

		if diagErr != nil {
			fmt.Fprintf(out, "診断: %s\n", userMessage(diagErr))
		} else {
			printDiagnosis(out, diagnosis)
		}
		if estErr != nil {
			fmt.Fprintf(out, "見積もり: %s\n", userMessage(estErr))
		} else {
			printEstimate(out, estimate)
		}
	}

	deal, err := orch.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "お問い合わせを受け付けました。受付番号: %s\n", deal.ID)

	if inquireFlags.note != "" {
		if _, err := orch.AddFollowUpNote(ctx, deal.ID, inquireFlags.note); err != nil {
			return err
		}
		fmt.Fprintln(out, "メッセージを送信しました。")
	}
	return nil
}

func printDiagnosis(w io.Writer, d *inquiry.DiagnosisResult) {
	fmt.Fprintln(w, "== AI診断 ==")
	if d.Text != "" {
		fmt.Fprintln(w, d.Text)
	}
	if s := d.Structured; s != nil {
		printList(w, "考えられる原因", s.PossibleCauses)
		printList(w, "簡単な確認", s.QuickChecks)
		printList(w, "推奨対応", s.RecommendedActions)
		printList(w, "確認事項", s.QuestionsToAsk)
		if s.WhatToTellShop != "" {
			fmt.Fprintf(w, "工場に伝えること: %s\n", s.WhatToTellShop)
		}
		fmt.Fprintf(w, "緊急度: %s / 確度: %s\n", s.Urgency, s.Confidence)
	}
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func printEstimate(w io.Writer, e *inquiry.CostEstimate) {
	fmt.Fprintln(w, "== 費用見積もり ==")
	fmt.Fprintf(w, "作業時間: %.1f時間 / 難易度: %s\n", e.WorkHours, e.Difficulty)
	fmt.Fprintf(w, "診断料: %d円\n", e.DiagnosisFee)
	fmt.Fprintf(w, "工賃: %d〜%d円\n", e.Labor.Min, e.Labor.Max)
	fmt.Fprintf(w, "部品代: %d〜%d円\n", e.Parts.Min, e.Parts.Max)
	fmt.Fprintf(w, "合計: %d〜%d円\n", e.Total.Min, e.Total.Max)
	if e.Reasoning != "" {
		fmt.Fprintf(w, "根拠: %s (類似事例 %d件)\n", e.Reasoning, e.SimilarCasesCount)
	}
}
