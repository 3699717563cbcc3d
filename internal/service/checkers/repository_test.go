package checkers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/Cheese-Checkers-bot/internal/domain"
)

func sampleGame(session, player string, ended time.Time) *domain.CheckersGame {
	return &domain.CheckersGame{
		SessionUUID:   session,
		PlayerHash:    player,
		RoomHash:      "room",
		Winner:        "dark",
		ResultMethod:  MethodResignation,
		Moves:         []string{"b3-c4", "g6-f5"},
		FinalBoard:    "board",
		CapturedLight: 1,
		StartedAt:     ended.Add(-time.Minute),
		EndedAt:       ended,
		Duration:      time.Minute,
	}
}

func openBadger(t *testing.T) *BadgerRepository {
	t.Helper()
	repo, err := OpenBadgerRepository("")
	if err != nil {
		t.Fatalf("OpenBadgerRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func repositories(t *testing.T) map[string]Repository {
	return map[string]Repository{
		"memory": NewMemoryRepository(),
		"badger": openBadger(t),
	}
}

func TestRepositoryInsertAndFetch(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			id1, err := repo.InsertGame(ctx, sampleGame("s1", "p1", base))
			if err != nil {
				t.Fatalf("insert s1: %v", err)
			}
			id2, err := repo.InsertGame(ctx, sampleGame("s2", "p1", base.Add(time.Hour)))
			if err != nil {
				t.Fatalf("insert s2: %v", err)
			}
			if id1 == id2 || id1 == 0 {
				t.Fatalf("ids not distinct: %d %d", id1, id2)
			}
			if _, err := repo.InsertGame(ctx, sampleGame("s1", "p1", base)); !errors.Is(err, ErrDuplicateGame) {
				t.Fatalf("duplicate insert err = %v", err)
			}
			if _, err := repo.InsertGame(ctx, sampleGame("s3", "p2", base)); err != nil {
				t.Fatalf("insert other player: %v", err)
			}

			recent, err := repo.GetRecentGames(ctx, "p1", 10)
			if err != nil {
				t.Fatalf("GetRecentGames: %v", err)
			}
			if len(recent) != 2 || recent[0].ID != id2 || recent[1].ID != id1 {
				t.Fatalf("recent order wrong: %+v", recent)
			}
			limited, _ := repo.GetRecentGames(ctx, "p1", 1)
			if len(limited) != 1 || limited[0].ID != id2 {
				t.Fatalf("limit not applied: %+v", limited)
			}

			game, err := repo.GetGame(ctx, id1, "p1")
			if err != nil || game == nil {
				t.Fatalf("GetGame: %v %v", game, err)
			}
			if len(game.Moves) != 2 || game.Moves[0] != "b3-c4" || game.CapturedLight != 1 {
				t.Fatalf("game fields lost: %+v", game)
			}
			if other, _ := repo.GetGame(ctx, id1, "p2"); other != nil {
				t.Fatalf("game visible to another player")
			}
			bySession, err := repo.GetGameBySession(ctx, "s2", "p1")
			if err != nil || bySession == nil || bySession.ID != id2 {
				t.Fatalf("GetGameBySession = %+v, %v", bySession, err)
			}
			if missing, err := repo.GetGameBySession(ctx, "nope", "p1"); missing != nil || err != nil {
				t.Fatalf("missing session = %+v, %v", missing, err)
			}
		})
	}
}

func TestRepositoryProfileUpsert(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if p, err := repo.GetProfile(ctx, "p1", "r1"); p != nil || err != nil {
				t.Fatalf("expected no profile, got %+v %v", p, err)
			}
			profile := &domain.CheckersProfile{PlayerHash: "p1", RoomHash: "r1", GamesPlayed: 1, DarkWins: 1}
			if err := repo.UpsertProfile(ctx, profile); err != nil {
				t.Fatalf("UpsertProfile: %v", err)
			}
			profile.GamesPlayed = 2
			if err := repo.UpsertProfile(ctx, profile); err != nil {
				t.Fatalf("UpsertProfile again: %v", err)
			}
			got, err := repo.GetProfile(ctx, "p1", "r1")
			if err != nil || got == nil {
				t.Fatalf("GetProfile: %v %v", got, err)
			}
			if got.GamesPlayed != 2 || got.DarkWins != 1 {
				t.Fatalf("profile = %+v", got)
			}
		})
	}
}
