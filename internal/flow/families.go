package flow

import (
	"regexp"
	"strings"

	"ucshop-bot/internal/domain"
)

// FamilySpec parameterizes the purchase engine per product family: how the
// delivery identifier is validated, when the balance is debited, and the
// user-facing wording.
type FamilySpec struct {
	Family domain.ProductFamily
	Title  string // menu/receipt heading
	Unit   string // what the item key counts ("Almaz", "UC", ...)
	Prompt string // delivery-identifier prompt
	Debit  domain.DebitTiming
	// Validate normalizes the identifier or fails with ErrBadDeliveryID.
	Validate func(string) (string, error)
}

var gameUIDRe = regexp.MustCompile(`^[0-9]{5,}$`)
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,}$`)

func validateGameUID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !gameUIDRe.MatchString(s) {
		return "", domain.ErrBadDeliveryID
	}
	return s, nil
}

func validateUsername(s string) (string, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	if !usernameRe.MatchString(s) {
		return "", domain.ErrBadDeliveryID
	}
	return "@" + s, nil
}

func validateNickname(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len([]rune(s)) < 2 {
		return "", domain.ErrBadDeliveryID
	}
	return s, nil
}

// families is the one place the per-family variation lives. The debit-timing
// split (create-time for premium/stars, confirm-time for the rest) mirrors
// the behavior the storefront has always had; see DESIGN.md before touching.
var families = map[domain.ProductFamily]*FamilySpec{
	domain.FamilyDiamonds: {
		Family:   domain.FamilyDiamonds,
		Title:    "Free Fire Almaz",
		Unit:     "Almaz",
		Prompt:   "Free Fire ID raqamingizni kiriting:\n\nMasalan: 123456789",
		Debit:    domain.DebitAtConfirm,
		Validate: validateGameUID,
	},
	domain.FamilyUC: {
		Family:   domain.FamilyUC,
		Title:    "PUBG Mobile UC",
		Unit:     "UC",
		Prompt:   "PUBG Mobile ID raqamingizni kiriting:\n\nMasalan: 512345678",
		Debit:    domain.DebitAtConfirm,
		Validate: validateGameUID,
	},
	domain.FamilyPP: {
		Family:   domain.FamilyPP,
		Title:    "PUBG Mobile PP",
		Unit:     "PP",
		Prompt:   "PUBG Mobile ID raqamingizni kiriting:\n\nMasalan: 512345678",
		Debit:    domain.DebitAtConfirm,
		Validate: validateGameUID,
	},
	domain.FamilyPremium: {
		Family:   domain.FamilyPremium,
		Title:    "Telegram Premium",
		Unit:     "oy",
		Prompt:   "Telegram username kiriting:\n\nMasalan: @username",
		Debit:    domain.DebitAtCreate,
		Validate: validateUsername,
	},
	domain.FamilyStars: {
		Family:   domain.FamilyStars,
		Title:    "Telegram Stars",
		Unit:     "Stars",
		Prompt:   "Telegram username kiriting:\n\nMasalan: @username",
		Debit:    domain.DebitAtCreate,
		Validate: validateUsername,
	},
	domain.FamilyGarden: {
		Family:   domain.FamilyGarden,
		Title:    "Grow a Garden",
		Unit:     "pet",
		Prompt:   "O'yindagi nickname'ingizni kiriting:",
		Debit:    domain.DebitAtConfirm,
		Validate: validateNickname,
	},
	domain.FamilyGST: {
		Family:   domain.FamilyGST,
		Title:    "GST",
		Unit:     "GST",
		Prompt:   "O'yindagi nickname'ingizni kiriting:",
		Debit:    domain.DebitAtConfirm,
		Validate: validateNickname,
	},
	domain.FamilyRobux: {
		Family:   domain.FamilyRobux,
		Title:    "Robux",
		Unit:     "Robux",
		Prompt:   "Roblox username kiriting:",
		Debit:    domain.DebitAtConfirm,
		Validate: validateNickname,
	},
}

// Spec returns the descriptor for a family, nil if unknown.
func Spec(f domain.ProductFamily) *FamilySpec {
	return families[f]
}
