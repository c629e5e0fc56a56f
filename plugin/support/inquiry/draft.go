package inquiry

import (
	"strings"

	apperrors "github.com/hrygo/repairdesk/internal/errors"
	"github.com/hrygo/repairdesk/server/gateway"
)

// NotificationMethod is how the customer wants to hear back from the shop.
type NotificationMethod string

const (
	NotifyEmail NotificationMethod = "email"
	NotifyLine  NotificationMethod = "line"
)

// Validation messages, in the order the checks run.
const (
	MissingContactMessage      = "お名前、電話番号、都道府県を入力してください。"
	MissingSymptomMessage      = "症状のカテゴリと詳細を入力してください。"
	MissingPartnerMessage      = "依頼先の工場が指定されていません。"
	MissingNotificationMessage = "通知方法を選択してください。"
	MissingDetailMessage       = "症状の詳細を入力してください。"
	EmptyNoteMessage           = "メッセージを入力してください。"
)

// Draft is the inquiry form.
type Draft struct {
	CustomerName    string
	Phone           string
	Email           string
	Prefecture      string
	SymptomCategory string
	SymptomDetail   string
	// PartnerReferenceID identifies the shop being contacted. It is supplied
	// by the referring page, not typed by the customer.
	PartnerReferenceID string
	NotificationMethod NotificationMethod
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Validate checks the draft for submission. The first failing group wins.
func (d Draft) Validate() error {
	switch {
	case blank(d.CustomerName) || blank(d.Phone) || blank(d.Prefecture):
		return apperrors.InvalidArgument(MissingContactMessage)
	case blank(d.SymptomCategory) || blank(d.SymptomDetail):
		return apperrors.InvalidArgument(MissingSymptomMessage)
	case blank(d.PartnerReferenceID):
		return apperrors.InvalidArgument(MissingPartnerMessage)
	case d.NotificationMethod != NotifyEmail && d.NotificationMethod != NotifyLine:
		return apperrors.InvalidArgument(MissingNotificationMessage)
	}
	return nil
}

func (d Draft) dealRequest() *gateway.DealRequest {
	return &gateway.DealRequest{
		CustomerName:       strings.TrimSpace(d.CustomerName),
		Phone:              strings.TrimSpace(d.Phone),
		Email:              strings.TrimSpace(d.Email),
		Prefecture:         d.Prefecture,
		SymptomCategory:    d.SymptomCategory,
		SymptomDetail:      d.SymptomDetail,
		PartnerPageID:      d.PartnerReferenceID,
		NotificationMethod: string(d.NotificationMethod),
	}
}
