package models

// Tier is a point-threshold rank. Tiers are kept sorted ascending by MinPoints.
type Tier struct {
	Name      string   `json:"name"`
	MinPoints int64    `json:"min_points"`
	Benefits  []string `json:"benefits"`
	Color     string   `json:"color"`
	Icon      string   `json:"icon"`
}

// Badge is a role-scoped achievement unlocked by a point threshold.
type Badge struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MinPoints   int64  `json:"min_points"`
	Role        Role   `json:"role"` // provider, volunteer, receiver or all
	Icon        string `json:"icon"`
}

var DefaultTiers = []Tier{
	{
		Name:      "Pemula",
		MinPoints: 0,
		Benefits:  []string{"Akses katalog donasi"},
		Color:     "#9CA3AF",
		Icon:      "🌱",
	},
	{
		Name:      "Penggerak",
		MinPoints: 1000,
		Benefits:  []string{"Lencana profil", "Prioritas notifikasi donasi terdekat"},
		Color:     "#10B981",
		Icon:      "🌿",
	},
	{
		Name:      "Pahlawan Pangan",
		MinPoints: 3000,
		Benefits:  []string{"Sertifikat kontribusi", "Undangan acara komunitas"},
		Color:     "#F59E0B",
		Icon:      "🏅",
	},
	{
		Name:      "Legenda",
		MinPoints: 7500,
		Benefits:  []string{"Sorotan di halaman utama", "Merchandise eksklusif"},
		Color:     "#8B5CF6",
		Icon:      "👑",
	},
}

// Predefined badges
var DefaultBadges = []Badge{
	{
		Code:        "FIRST_STEP",
		Name:        "Langkah Pertama",
		Description: "Earned your first points",
		MinPoints:   10,
		Role:        RoleAll,
		Icon:        "👣",
	},
	{
		Code:        "GENEROUS_KITCHEN",
		Name:        "Dapur Dermawan",
		Description: "Provider with 500 points of shared food",
		MinPoints:   500,
		Role:        RoleProvider,
		Icon:        "🍱",
	},
	{
		Code:        "ROAD_HERO",
		Name:        "Kurir Tangguh",
		Description: "Volunteer who completed many deliveries",
		MinPoints:   750,
		Role:        RoleVolunteer,
		Icon:        "🛵",
	},
	{
		Code:        "GRATEFUL_TABLE",
		Name:        "Meja Penuh Syukur",
		Description: "Receiver who completed 20 claims",
		MinPoints:   200,
		Role:        RoleReceiver,
		Icon:        "🤲",
	},
	{
		Code:        "ZERO_WASTE_CHAMPION",
		Name:        "Juara Nol Sampah",
		Description: "Reached 3000 points",
		MinPoints:   3000,
		Role:        RoleAll,
		Icon:        "♻️",
	},
}
