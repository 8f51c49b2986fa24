package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hotstinder/hotstinder/internal/adapters/auth"
	"github.com/hotstinder/hotstinder/internal/adapters/repository"
	service "github.com/hotstinder/hotstinder/internal/app"
	"github.com/hotstinder/hotstinder/internal/domain/model"
	"github.com/hotstinder/hotstinder/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func seedUsers(ctx context.Context, store repository.Store, n int) {
	for i := 0; i < n; i++ {
		u := model.User{
			ID:          fmt.Sprintf("u%02d", i),
			DisplayName: fmt.Sprintf("Player%02d", i),
			MMR:         1500 + i*10,
		}
		So(store.CreateUser(ctx, &u), ShouldBeNil)
	}
}

func startService(ctx context.Context, opts ...service.Option) (*service.Service, repository.Store) {
	store := repository.NewMemoryStore(ctx)
	svc := service.New(append([]service.Option{
		service.WithStore(store),
		service.WithWorkerCount(1),
	}, opts...)...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc, store
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["ratingDelta"], ShouldEqual, 25)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(500),
			service.WithRatingDelta(30),
			service.WithSyntheticLimits(10, 5),
		)

		Convey("Then the options should be applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 500)
			So(stats["ratingDelta"], ShouldEqual, 30)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)
			defer svc.Stop()

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["totalUsers"], ShouldEqual, 0)
			})

			Convey("And starting twice should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And stopping again should not panic", func() {
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})

		Convey("When stopping a service that never started", func() {
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})
}

func TestService_WithoutStore(t *testing.T) {
	Convey("Given a service that owns no store yet", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1))

		Convey("When reading or writing data before Start", func() {
			_, userErr := svc.GetUser(ctx, "u00")
			_, topErr := svc.TopN(ctx, 10, 0)
			_, _, listErr := svc.ListMatches(ctx, model.MatchFilter{Page: model.Page{Limit: 10}})
			_, genErr := svc.GenerateMatches(ctx, 1, false)
			_, usersErr := svc.GenerateUsers(ctx, 1)

			Convey("Then every call reports that the service is not started", func() {
				So(errors.Is(userErr, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(topErr, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(listErr, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(genErr, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(usersErr, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When the service stops and releases its in-memory store", func() {
			So(svc.Start(ctx), ShouldBeNil)
			_, err := svc.GenerateUsers(ctx, 3)
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("Then later calls fail instead of panicking", func() {
				_, err := svc.Rank(ctx, "u00")
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, _, err = svc.ListUsers(ctx, model.Page{Limit: 10})
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(svc.DeleteMatch(ctx, "m1"), service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_GenerateMatches(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()

		Convey("When only eight real users exist", func() {
			svc, store := startService(ctx)
			defer svc.Stop()
			seedUsers(ctx, store, 8)

			result, err := svc.GenerateMatches(ctx, 3, true)

			Convey("Then the batch is rejected with a roster error", func() {
				So(errors.Is(err, service.ErrInsufficientRoster), ShouldBeTrue)
				var rosterErr *service.RosterError
				So(errors.As(err, &rosterErr), ShouldBeTrue)
				So(rosterErr.Available, ShouldEqual, 8)
				So(rosterErr.Required, ShouldEqual, 10)
				So(result.Created, ShouldEqual, 0)
			})

			Convey("And no match or synthetic user is created", func() {
				_, total, err := svc.ListMatches(ctx, model.MatchFilter{Page: model.Page{Limit: 10}})
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 0)
				users, err := store.CountUsers(ctx)
				So(err, ShouldBeNil)
				So(users, ShouldEqual, 8)
			})
		})

		Convey("When twelve real users exist", func() {
			svc, store := startService(ctx)
			defer svc.Stop()
			seedUsers(ctx, store, 12)

			result, err := svc.GenerateMatches(ctx, 3, true)

			Convey("Then every match is created from stored users", func() {
				So(err, ShouldBeNil)
				So(result.Requested, ShouldEqual, 3)
				So(result.Created, ShouldEqual, 3)
				So(result.Failed, ShouldEqual, 0)
				So(len(result.MatchIDs), ShouldEqual, 3)

				m, err := svc.GetMatch(ctx, result.MatchIDs[0])
				So(err, ShouldBeNil)
				So(m.Source, ShouldEqual, model.SourceRoster)
				sides := map[int]int{}
				for _, p := range m.Players {
					sides[p.Team]++
				}
				So(sides, ShouldResemble, map[int]int{0: 5, 1: 5})
				So(m.WinProbability, ShouldBeBetweenOrEqual, 0.1, 0.9)
				So(m.DurationSeconds, ShouldBeBetweenOrEqual, 600, 2100)
			})

			Convey("And winners and losers move by the rating delta", func() {
				So(err, ShouldBeNil)
				m, err := svc.GetMatch(ctx, result.MatchIDs[0])
				So(err, ShouldBeNil)
				for _, p := range m.Players {
					if p.Won {
						So(p.MMRDelta, ShouldEqual, 25)
					} else {
						So(p.MMRDelta, ShouldEqual, -25)
					}
				}
			})
		})

		Convey("When generating synthetic matches", func() {
			svc, store := startService(ctx)
			defer svc.Stop()

			result, err := svc.GenerateMatches(ctx, 2, false)

			Convey("Then each match gets ten new synthetic accounts", func() {
				So(err, ShouldBeNil)
				So(result.Created, ShouldEqual, 2)
				users, err := store.CountUsers(ctx)
				So(err, ShouldBeNil)
				So(users, ShouldEqual, 20)

				m, err := svc.GetMatch(ctx, result.MatchIDs[1])
				So(err, ShouldBeNil)
				So(m.Source, ShouldEqual, model.SourceSynthetic)
				u, err := svc.GetUser(ctx, m.Players[0].UserID)
				So(err, ShouldBeNil)
				So(u.Synthetic, ShouldBeTrue)
			})
		})

		Convey("When a match id collides", func() {
			svc, store := startService(ctx, service.WithMatchIDFunc(func() string { return "01HZZZZZZZZZZZZZZZZZZZZZZZ" }))
			defer svc.Stop()
			seedUsers(ctx, store, 10)

			result, err := svc.GenerateMatches(ctx, 3, true)

			Convey("Then the conflicting matches are skipped and the batch continues", func() {
				So(err, ShouldBeNil)
				So(result.Created, ShouldEqual, 1)
				So(result.Failed, ShouldEqual, 2)
				So(result.MatchIDs, ShouldResemble, []string{"01HZZZZZZZZZZZZZZZZZZZZZZZ"})
			})
		})

		Convey("When the count is out of range", func() {
			svc, _ := startService(ctx, service.WithSyntheticLimits(100, 5))
			defer svc.Stop()

			_, errLow := svc.GenerateMatches(ctx, 0, false)
			_, errHigh := svc.GenerateMatches(ctx, 6, false)

			Convey("Then it should be rejected", func() {
				So(errors.Is(errLow, service.ErrLimitExceeded), ShouldBeTrue)
				So(errors.Is(errHigh, service.ErrLimitExceeded), ShouldBeTrue)
			})
		})
	})
}

func TestService_GenerateUsers(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc, store := startService(ctx, service.WithSyntheticLimits(20, 5))
		defer svc.Stop()

		Convey("When generating users within the limit", func() {
			users, err := svc.GenerateUsers(ctx, 15)

			Convey("Then they should be stored as synthetic accounts", func() {
				So(err, ShouldBeNil)
				So(len(users), ShouldEqual, 15)
				count, err := store.CountUsers(ctx)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 15)
				for _, u := range users {
					So(u.Synthetic, ShouldBeTrue)
					So(u.MMR, ShouldBeBetweenOrEqual, 1000, 3000)
					So(len(u.FavoriteHeroes), ShouldBeBetweenOrEqual, 1, 3)
				}
			})
		})

		Convey("When generating more users than allowed", func() {
			_, err := svc.GenerateUsers(ctx, 21)

			Convey("Then it should fail", func() {
				So(errors.Is(err, service.ErrLimitExceeded), ShouldBeTrue)
			})
		})
	})
}

func TestService_Login(t *testing.T) {
	Convey("Given a service with an admin BattleTag", t, func() {
		ctx := context.Background()
		svc, _ := startService(ctx, service.WithAdminBattleTags([]string{"Boss#1234"}))
		defer svc.Stop()

		Convey("When a new player logs in", func() {
			u, created, err := svc.Login(ctx, auth.Identity{ID: "1", BattleTag: "Player#1111"})

			Convey("Then an account is created with default MMR", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(u.MMR, ShouldEqual, 1500)
				So(u.IsAdmin, ShouldBeFalse)
			})

			Convey("And logging in again returns the same account", func() {
				again, created, err := svc.Login(ctx, auth.Identity{ID: "1", BattleTag: "Player#1111"})
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				So(again.ID, ShouldEqual, u.ID)
			})
		})

		Convey("When the admin logs in with different casing", func() {
			u, _, err := svc.Login(ctx, auth.Identity{ID: "2", BattleTag: "boss#1234"})

			Convey("Then the account is an admin", func() {
				So(err, ShouldBeNil)
				So(u.IsAdmin, ShouldBeTrue)
			})
		})
	})
}

func TestService_UpdateProfile(t *testing.T) {
	Convey("Given a stored user", t, func() {
		ctx := context.Background()
		svc, store := startService(ctx)
		defer svc.Stop()
		seedUsers(ctx, store, 1)

		Convey("When setting a catalog role and heroes", func() {
			role := "Healer"
			u, err := svc.UpdateProfile(ctx, "u00", model.ProfileUpdate{
				PreferredRole:  &role,
				FavoriteHeroes: []string{"Anduin", "Abathur", "Anduin"},
				SetFavorites:   true,
			})

			Convey("Then duplicates are dropped in order", func() {
				So(err, ShouldBeNil)
				So(u.PreferredRole, ShouldEqual, "Healer")
				So(u.FavoriteHeroes, ShouldResemble, []string{"Anduin", "Abathur"})
			})
		})

		Convey("When setting an unknown role", func() {
			role := "Jungler"
			_, err := svc.UpdateProfile(ctx, "u00", model.ProfileUpdate{PreferredRole: &role})

			Convey("Then the update is rejected", func() {
				So(errors.Is(err, service.ErrInvalidProfile), ShouldBeTrue)
			})
		})

		Convey("When setting an unknown hero", func() {
			_, err := svc.UpdateProfile(ctx, "u00", model.ProfileUpdate{FavoriteHeroes: []string{"Pudge"}, SetFavorites: true})

			Convey("Then the update is rejected", func() {
				So(errors.Is(err, service.ErrInvalidProfile), ShouldBeTrue)
			})
		})

		Convey("When the user is deleted", func() {
			So(svc.DeleteUser(ctx, "u00"), ShouldBeNil)

			Convey("Then it can no longer be found", func() {
				_, err := svc.GetUser(ctx, "u00")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
