package techstack

import "github.com/nao1215/storeprofile/internal/model"

// Signature identifies a third-party app by substrings of the page.
type Signature struct {
	Category string
	Name     string
	// Needles are matched case-insensitively; any one is enough.
	Needles []string
}

// App categories.
const (
	CategoryEmail         = "Email / CRM"
	CategoryReviews       = "Reviews / UGC"
	CategorySubscriptions = "Subscriptions"
	CategoryHelpdesk      = "Helpdesk / chat"
	CategoryPageBuilders  = "Page builders / merchandising"
)

// DefaultSignatures is the built-in app table.
var DefaultSignatures = []Signature{
	{Category: CategoryEmail, Name: "Klaviyo", Needles: []string{"klaviyo.js", "klaviyo", "klaviyo_tracking"}},
	{Category: CategoryEmail, Name: "Omnisend", Needles: []string{"omnisend", "omni_send"}},
	{Category: CategoryEmail, Name: "Mailchimp", Needles: []string{"mailchimp", "mcjs"}},

	{Category: CategoryReviews, Name: "Yotpo", Needles: []string{"yotpo", "staticw2.yotpo.com"}},
	{Category: CategoryReviews, Name: "Judge.me", Needles: []string{"judge.me", "cdn.judge.me"}},
	{Category: CategoryReviews, Name: "Stamped.io", Needles: []string{"stamped.io", "stamped-reviews"}},

	{Category: CategorySubscriptions, Name: "Recharge", Needles: []string{"recharge.js", "rechargepayments"}},
	{Category: CategorySubscriptions, Name: "Bold Subscriptions", Needles: []string{"bold-subscriptions", "boldSubscriptions"}},

	{Category: CategoryHelpdesk, Name: "Gorgias", Needles: []string{"gorgias-", "gorgias.io"}},
	{Category: CategoryHelpdesk, Name: "Intercom", Needles: []string{"intercom", "widget.intercom.io"}},
	{Category: CategoryHelpdesk, Name: "Zendesk", Needles: []string{"zendesk", "zdassets.com"}},
	{Category: CategoryHelpdesk, Name: "Crisp chat", Needles: []string{"crisp.chat", "client.crisp.im"}},

	{Category: CategoryPageBuilders, Name: "Shogun", Needles: []string{"shogun", "cdn.getshogun.com"}},
	{Category: CategoryPageBuilders, Name: "PageFly", Needles: []string{"pagefly", "cdn.pagefly.io"}},
	{Category: CategoryPageBuilders, Name: "GemPages", Needles: []string{"gem_pages", "gempages"}},
}

type pixelSignature struct {
	name    string
	needles []string
}

var pixelSignatures = []pixelSignature{
	{name: model.PixelGoogleAnalytics, needles: []string{"gtag('config'", "www.googletagmanager.com/gtag/"}},
	{name: model.PixelGoogleTagManager, needles: []string{"www.googletagmanager.com/gtm.js"}},
	{name: model.PixelFacebook, needles: []string{"fbq('init'", "connect.facebook.net/en_US/fbevents.js"}},
	{name: model.PixelSnap, needles: []string{"snaptr('init'", "sc-static.net/scevent.min.js"}},
	{name: model.PixelTikTok, needles: []string{"tiktokanalytics.js", "analytics.tiktok.com"}},
	{name: model.PixelHotjar, needles: []string{"hotjar", "static.hotjar.com"}},
}

// Theme hints.
const (
	ThemeHintCustom = "Custom / identified in JS"
	ThemeHintDebut  = "Possibly Debut theme"
	ThemeHintDawn   = "Possibly Dawn theme"
)

// themeHeuristics are applied in order and every match overwrites the
// previous hint, so the last matching entry wins.
var themeHeuristics = []struct {
	hint    string
	needles []string
}{
	{hint: ThemeHintCustom, needles: []string{"shopify.theme", "theme_name"}},
	{hint: ThemeHintDebut, needles: []string{"debut"}},
	{hint: ThemeHintDawn, needles: []string{"dawn"}},
}
