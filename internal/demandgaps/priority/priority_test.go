package priority

import (
	"testing"

	"github.com/google/uuid"
)

func TestScoreHotLargeBudgetKnownUserClamps(t *testing.T) {
	user := uuid.New()
	g := Gap{ID: uuid.New(), UserID: &user, Urgency: "hot", BudgetMax: 1_200_000}
	if got := Score(g); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestScoreTiers(t *testing.T) {
	cases := []struct {
		name string
		gap  Gap
		want int
	}{
		{"guest cold no budget", Gap{Urgency: "cold"}, 50},
		{"warm mid budget", Gap{Urgency: "Warm", BudgetMax: 600_000}, 80},
		{"budget boundary is exclusive", Gap{BudgetMax: 500_000}, 60},
		{"small budget", Gap{BudgetMax: 300_001}, 60},
		{"no bonus at 3L", Gap{BudgetMax: 300_000}, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.gap); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestSpecificity(t *testing.T) {
	g := Gap{
		MustHaves:      []string{"sunroof", "", "airbags", "cruise", "abs", "camera", "alloys"},
		BodyType:       "suv",
		FuelType:       "diesel",
		PreferredBrand: "Mahindra",
		Note:           "Need it before the wedding next month",
	}
	// must-haves 6*2 capped at 10, two attributes 4, brand 5, note 5
	if got := Specificity(g); got != 24 {
		t.Fatalf("expected 24, got %d", got)
	}
	if got := Specificity(Gap{Note: "short note"}); got != 0 {
		t.Fatalf("expected 0 for a short note, got %d", got)
	}
}

func TestRankBroadcastsWithSameCityFirst(t *testing.T) {
	a := Dealer{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), City: "Mumbai"}
	b := Dealer{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), City: " pune "}
	c := Dealer{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000c"), City: ""}

	got := Rank(Gap{City: "Pune"}, []Dealer{c, a, b})
	if len(got) != 3 {
		t.Fatalf("expected every dealer, got %d", len(got))
	}
	if got[0].Dealer.ID != b.ID || got[0].Score != 60 || len(got[0].Reasons) != 2 || got[0].Reasons[1] != ReasonSameCity {
		t.Fatalf("unexpected top match %+v", got[0])
	}
	if got[1].Dealer.ID != a.ID || got[2].Dealer.ID != c.ID || got[2].Score != 10 {
		t.Fatalf("unexpected tail order %+v", got[1:])
	}
}

func TestRankWithoutCityGivesBaseScores(t *testing.T) {
	got := Rank(Gap{}, []Dealer{{ID: uuid.New(), City: ""}})
	if got[0].Score != 10 || len(got[0].Reasons) != 1 {
		t.Fatalf("unexpected match %+v", got[0])
	}
}
