package evaluate_test

import (
	"testing"

	"github.com/caliberhq/caliper/internal/domain/evaluate"
	"github.com/caliberhq/caliper/internal/domain/scorecard"
	. "github.com/smartystreets/goconvey/convey"
)

func errPair(points, value float64) evaluate.Pair {
	return evaluate.Pair{
		Param: scorecard.Parameter{Kind: scorecard.KindError, Points: points, Active: true},
		Value: value,
	}
}

func achievementPair(points, value float64) evaluate.Pair {
	return evaluate.Pair{
		Param: scorecard.Parameter{Kind: scorecard.KindAchievement, Points: points, Active: true},
		Value: value,
	}
}

func bonusPair(points, value float64) evaluate.Pair {
	return evaluate.Pair{
		Param: scorecard.Parameter{Kind: scorecard.KindBonus, Points: points, Active: true},
		Value: value,
	}
}

func TestScoreDeductive(t *testing.T) {
	Convey("Given a deductive scorecard", t, func() {
		card := scorecard.Scorecard{ID: "chat-qa", Policy: scorecard.PolicyDeductive, PassingThreshold: 85}

		Convey("When one penalty-10 error is observed twice", func() {
			score := evaluate.Score(card, []evaluate.Pair{errPair(10, 2)})

			Convey("Then the score is 80", func() {
				So(score, ShouldEqual, 80)
			})
		})

		Convey("When penalties exceed 100", func() {
			score := evaluate.Score(card, []evaluate.Pair{errPair(60, 2)})

			Convey("Then the score floors at 0", func() {
				So(score, ShouldEqual, 0)
			})
		})

		Convey("When there are no parameters at all", func() {
			Convey("Then the clean slate is 100", func() {
				So(evaluate.Score(card, nil), ShouldEqual, 100)
			})
		})

		Convey("When achievements are present", func() {
			score := evaluate.Score(card, []evaluate.Pair{errPair(10, 1), achievementPair(50, 1)})

			Convey("Then they are excluded from the deduction", func() {
				So(score, ShouldEqual, 90)
			})
		})

		Convey("When an achievement is explicitly subtract-directed", func() {
			p := achievementPair(5, 2)
			p.Param.Direction = scorecard.DirectionSubtract
			score := evaluate.Score(card, []evaluate.Pair{p})

			Convey("Then it deducts like an error", func() {
				So(score, ShouldEqual, 90)
			})
		})

		Convey("When a parameter is inactive", func() {
			p := errPair(40, 1)
			p.Param.Active = false
			score := evaluate.Score(card, []evaluate.Pair{p})

			Convey("Then it is ignored even unfiltered", func() {
				So(score, ShouldEqual, 100)
			})
		})

		Convey("When the same input is scored repeatedly", func() {
			pairs := []evaluate.Pair{errPair(7, 3), errPair(2, 1)}
			first := evaluate.Score(card, pairs)

			Convey("Then every run yields the identical score", func() {
				for i := 0; i < 5; i++ {
					So(evaluate.Score(card, pairs), ShouldEqual, first)
				}
			})
		})
	})
}

func TestScoreAdditive(t *testing.T) {
	Convey("Given an additive scorecard", t, func() {
		card := scorecard.Scorecard{ID: "kudos", Policy: scorecard.PolicyAdditive, PassingThreshold: 60}

		Convey("When half the achievable points are earned", func() {
			pairs := []evaluate.Pair{achievementPair(10, 1), achievementPair(10, 0)}
			score := evaluate.Score(card, pairs)

			Convey("Then the score is 50", func() {
				So(score, ShouldEqual, 50)
			})
		})

		Convey("When every achievement is earned", func() {
			pairs := []evaluate.Pair{achievementPair(10, 1), achievementPair(30, 1)}

			Convey("Then the score is 100", func() {
				So(evaluate.Score(card, pairs), ShouldEqual, 100)
			})
		})

		Convey("When a counter achievement is observed more than once", func() {
			pairs := []evaluate.Pair{achievementPair(10, 3), achievementPair(10, 0)}

			Convey("Then the score still caps at 100", func() {
				So(evaluate.Score(card, pairs), ShouldEqual, 100)
			})
		})

		Convey("When there is nothing to achieve", func() {
			Convey("Then the score is 0, not a division error", func() {
				So(evaluate.Score(card, nil), ShouldEqual, 0)
				So(evaluate.Score(card, []evaluate.Pair{errPair(10, 1)}), ShouldEqual, 0)
			})
		})

		Convey("When an error parameter is explicitly add-directed", func() {
			p := errPair(20, 1)
			p.Param.Direction = scorecard.DirectionAdd
			score := evaluate.Score(card, []evaluate.Pair{p, achievementPair(20, 0)})

			Convey("Then it counts toward the additive set", func() {
				So(score, ShouldEqual, 50)
			})
		})
	})
}

func TestScoreHybrid(t *testing.T) {
	Convey("Given a hybrid scorecard with a bonus cap", t, func() {
		card := scorecard.Scorecard{
			ID:               "voice-qa",
			Policy:           scorecard.PolicyHybrid,
			PassingThreshold: 85,
			MaxBonusPoints:   20,
		}

		Convey("When an error and a large achievement combine", func() {
			pairs := []evaluate.Pair{errPair(30, 1), achievementPair(50, 1)}
			score := evaluate.Score(card, pairs)

			Convey("Then the bonus caps at 20 and the final score is 90", func() {
				So(score, ShouldEqual, 90)
			})
		})

		Convey("When bonuses would push past 100", func() {
			pairs := []evaluate.Pair{achievementPair(50, 1)}

			Convey("Then the final score caps at 100", func() {
				So(evaluate.Score(card, pairs), ShouldEqual, 100)
			})

			Convey("And with allowOver100 the cap lifts but the bonus cap holds", func() {
				open := card
				open.AllowOver100 = true
				So(evaluate.Score(open, pairs), ShouldEqual, 120)
			})
		})

		Convey("When the cap is zero", func() {
			uncapped := card
			uncapped.MaxBonusPoints = 0
			uncapped.AllowOver100 = true
			pairs := []evaluate.Pair{errPair(60, 1), achievementPair(50, 1)}

			Convey("Then the bonus is not capped at all", func() {
				So(evaluate.Score(uncapped, pairs), ShouldEqual, 90)
			})
		})

		Convey("When errors push the base below zero", func() {
			pairs := []evaluate.Pair{errPair(80, 2), bonusPair(10, 1)}

			Convey("Then the final score floors at 0", func() {
				So(evaluate.Score(card, pairs), ShouldEqual, 0)
			})
		})

		Convey("When a subtract-directed achievement is present", func() {
			p := achievementPair(10, 1)
			p.Param.Direction = scorecard.DirectionSubtract

			Convey("Then the subtract branch wins over the bonus branch", func() {
				So(evaluate.Score(card, []evaluate.Pair{p}), ShouldEqual, 90)
			})
		})

		Convey("When there are no parameters", func() {
			Convey("Then the clean slate is 100", func() {
				So(evaluate.Score(card, nil), ShouldEqual, 100)
			})
		})
	})
}

func TestScoreUnknownPolicy(t *testing.T) {
	Convey("Given a scorecard with an unknown policy string", t, func() {
		card := scorecard.Scorecard{ID: "legacy", Policy: scorecard.Policy("multiplicative")}

		Convey("When scoring", func() {
			score := evaluate.Score(card, []evaluate.Pair{errPair(10, 2)})

			Convey("Then it behaves deductively", func() {
				So(score, ShouldEqual, 80)
			})
		})
	})
}

func TestScoreBounds(t *testing.T) {
	Convey("Given adversarial parameter sets", t, func() {
		Convey("Then deductive and hybrid never go negative", func() {
			pairs := []evaluate.Pair{errPair(1000, 5)}
			deductive := scorecard.Scorecard{Policy: scorecard.PolicyDeductive}
			hybrid := scorecard.Scorecard{Policy: scorecard.PolicyHybrid}
			So(evaluate.Score(deductive, pairs), ShouldBeGreaterThanOrEqualTo, 0)
			So(evaluate.Score(hybrid, pairs), ShouldBeGreaterThanOrEqualTo, 0)
		})

		Convey("And additive stays within 0 to 100", func() {
			additive := scorecard.Scorecard{Policy: scorecard.PolicyAdditive}
			pairs := []evaluate.Pair{achievementPair(10, 50)}
			score := evaluate.Score(additive, pairs)
			So(score, ShouldBeGreaterThanOrEqualTo, 0)
			So(score, ShouldBeLessThanOrEqualTo, 100)
		})
	})
}
