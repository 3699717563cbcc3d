package checkers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/park285/Cheese-Checkers-bot/internal/domain"
)

// Key layout
//
//	game/id/<id>                       -> game JSON
//	game/session/<session>|<player>    -> id
//	game/player/<player>/<ended>/<id>  -> id
//	profile/<player>|<room>            -> profile JSON
const (
	prefixGameID      = "game/id/"
	prefixGameSession = "game/session/"
	prefixGamePlayer  = "game/player/"
	prefixProfile     = "profile/"
	keyGameSeq        = "seq/game"
)

// BadgerRepository archives games in an embedded badger store.
type BadgerRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenBadgerRepository opens dir; an empty dir keeps everything in memory.
func OpenBadgerRepository(dir string) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger archive: %w", err)
	}
	seq, err := db.GetSequence([]byte(keyGameSeq), 16)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("badger game sequence: %w", err)
	}
	return &BadgerRepository{db: db, seq: seq}, nil
}

func (r *BadgerRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	_ = r.seq.Release()
	return r.db.Close()
}

func padID(id int64) string {
	return fmt.Sprintf("%020d", id)
}

func (r *BadgerRepository) InsertGame(_ context.Context, game *domain.CheckersGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil checkers game payload")
	}
	sessionKey := []byte(prefixGameSession + joinKey(game.SessionUUID, game.PlayerHash))

	var id int64
	err := r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(sessionKey)
		if err == nil {
			return ErrDuplicateGame
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		next, err := r.seq.Next()
		if err != nil {
			return err
		}
		// sequences start at zero
		id = int64(next) + 1

		stored := cloneGame(game)
		stored.ID = id
		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		idText := []byte(padID(id))
		if err := txn.Set([]byte(prefixGameID+padID(id)), data); err != nil {
			return err
		}
		if err := txn.Set(sessionKey, idText); err != nil {
			return err
		}
		playerKey := prefixGamePlayer + game.PlayerHash + "/" + padID(game.EndedAt.UnixNano()) + "/" + padID(id)
		return txn.Set([]byte(playerKey), idText)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func getGame(txn *badger.Txn, id int64) (*domain.CheckersGame, error) {
	item, err := txn.Get([]byte(prefixGameID + padID(id)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	game := &domain.CheckersGame{}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, game)
	}); err != nil {
		return nil, err
	}
	return game, nil
}

func readID(item *badger.Item) (int64, error) {
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}

func (r *BadgerRepository) GetRecentGames(_ context.Context, playerHash string, limit int) ([]*domain.CheckersGame, error) {
	if limit <= 0 {
		limit = 10
	}
	prefix := []byte(prefixGamePlayer + playerHash + "/")
	games := make([]*domain.CheckersGame, 0, limit)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte(nil), prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(games) < limit; it.Next() {
			id, err := readID(it.Item())
			if err != nil {
				return err
			}
			game, err := getGame(txn, id)
			if err != nil {
				return err
			}
			if game != nil {
				games = append(games, game)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan badger games: %w", err)
	}
	return games, nil
}

func (r *BadgerRepository) GetGame(_ context.Context, id int64, playerHash string) (*domain.CheckersGame, error) {
	var game *domain.CheckersGame
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		game, err = getGame(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if game == nil || game.PlayerHash != playerHash {
		return nil, nil
	}
	return game, nil
}

func (r *BadgerRepository) GetGameBySession(_ context.Context, sessionUUID string, playerHash string) (*domain.CheckersGame, error) {
	var game *domain.CheckersGame
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixGameSession + joinKey(sessionUUID, playerHash)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		id, err := readID(item)
		if err != nil {
			return err
		}
		game, err = getGame(txn, id)
		return err
	})
	return game, err
}

func (r *BadgerRepository) GetProfile(_ context.Context, playerHash string, roomHash string) (*domain.CheckersProfile, error) {
	var profile *domain.CheckersProfile
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixProfile + joinKey(playerHash, roomHash)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		profile = &domain.CheckersProfile{}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, profile)
		})
	})
	return profile, err
}

func (r *BadgerRepository) UpsertProfile(_ context.Context, profile *domain.CheckersProfile) error {
	if profile == nil {
		return fmt.Errorf("nil checkers profile payload")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixProfile+joinKey(profile.PlayerHash, profile.RoomHash)), data)
	})
}
