package models

// Badge represents an achievement badge that users earn by reaching
// milestones. The catalog is immutable reference data; the Criteria
// predicate is evaluated once per mutating ledger operation, and a
// badge is added only if absent. Badges are never removed.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`

	// Criteria reports whether the profile qualifies for the badge.
	// Predicates must be pure functions of the profile snapshot.
	Criteria func(p *UserProfile) bool `json:"-"`
}

// Badge ids. BadgeFirstPurchase (b4) is only reachable through the
// marketplace purchase path, never through the ledger delta pass.
const (
	BadgeFirstScan     = "b1"
	BadgePlasticMaster = "b2"
	BadgeGenerousMaker = "b3"
	BadgeFirstPurchase = "b4"
	BadgeGreenLegend   = "b5"
	BadgeCollaborator  = "b6"
	BadgeEcoGuardian   = "b7"
)

// BadgeCatalog is the full badge table. Names and icons follow the
// product's Indonesian copy.
var BadgeCatalog = []Badge{
	{
		ID:          BadgeFirstScan,
		Name:        "Pejuang Pertama",
		Icon:        "🌱",
		Description: "Melakukan scan barang pertama kali.",
		Criteria:    func(p *UserProfile) bool { return p.ItemsScanned >= 1 },
	},
	{
		ID:          BadgePlasticMaster,
		Name:        "Master Plastik",
		Icon:        "🥤",
		Description: "Scan 10 barang berbahan plastik.",
		Criteria:    func(p *UserProfile) bool { return p.PlasticItemsScanned >= 10 },
	},
	{
		ID:          BadgeGenerousMaker,
		Name:        "Dermawan Kreatif",
		Icon:        "🎨",
		Description: "Membagikan 5 hasil karya ke komunitas.",
		Criteria:    func(p *UserProfile) bool { return p.CreationsShared >= 5 },
	},
	{
		ID:          BadgeFirstPurchase,
		Name:        "Kolektor Seni",
		Icon:        "💎",
		Description: "Membeli item pertama di pasar.",
		// Awarded by the purchase transaction, not the delta pass.
		Criteria: func(p *UserProfile) bool { return false },
	},
	{
		ID:          BadgeGreenLegend,
		Name:        "Legenda Hijau",
		Icon:        "👑",
		Description: "Mencapai total 5000 XP.",
		Criteria:    func(p *UserProfile) bool { return p.Points >= 5000 },
	},
	{
		ID:          BadgeCollaborator,
		Name:        "Kolaborator Komunitas",
		Icon:        "💬",
		Description: "Berikan 5 komentar pada karya orang lain.",
		Criteria:    func(p *UserProfile) bool { return p.CommentsMade >= 5 },
	},
	{
		ID:          BadgeEcoGuardian,
		Name:        "Peduli Lingkungan",
		Icon:        "🌍",
		Description: "Menghemat total 10kg (10.000g) CO2.",
		Criteria:    func(p *UserProfile) bool { return p.TotalCo2Saved >= 10000 },
	},
}

// BadgeByID looks up a catalog entry; ok is false for unknown ids.
func BadgeByID(id string) (Badge, bool) {
	for _, b := range BadgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// EvaluateBadges runs one idempotent unlock pass over the catalog and
// returns the ids newly awarded to the profile.
func EvaluateBadges(p *UserProfile) []string {
	var awarded []string
	for _, b := range BadgeCatalog {
		if b.Criteria(p) && p.AwardBadge(b.ID) {
			awarded = append(awarded, b.ID)
		}
	}
	return awarded
}

// ===============================
// RANKS
// ===============================

// Rank titles, ordered from starting rank upwards. Ranks only ever
// move up: a purchase debit never demotes a profile.
const (
	RankBeginner = "Pemula Hijau"
	RankFighter  = "Pejuang Ekosistem"
	RankHero     = "Pahlawan Hijau"
	RankLegend   = "Legenda Lingkungan"
)

// RankForPoints derives the rank title for a points balance. The
// empty string means "no threshold crossed, keep the current rank",
// which is what keeps ranks monotonic when points fall after a
// purchase.
func RankForPoints(points int64) string {
	switch {
	case points > 5000:
		return RankLegend
	case points > 2000:
		return RankHero
	case points > 1000:
		return RankFighter
	default:
		return ""
	}
}
