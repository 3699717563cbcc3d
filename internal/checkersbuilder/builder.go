package checkersbuilder

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    _ "github.com/lib/pq"
    "go.uber.org/zap"

    "github.com/park285/Cheese-Checkers-bot/internal/config"
    "github.com/park285/Cheese-Checkers-bot/internal/msgcat"
    "github.com/park285/Cheese-Checkers-bot/internal/pvp"
    "github.com/park285/Cheese-Checkers-bot/internal/pvpchan"
    "github.com/park285/Cheese-Checkers-bot/internal/pvpcheckers"
    "github.com/park285/Cheese-Checkers-bot/internal/service/cache"
    svccheckers "github.com/park285/Cheese-Checkers-bot/internal/service/checkers"
)

type Deps struct {
    Service    *svccheckers.Service
    Cache      *cache.CacheService
    Repo       svccheckers.Repository
    Messages   *msgcat.Catalog
    PvP        *pvpcheckers.Manager
    Lobby      *pvpchan.Manager
    Challenges *pvp.Manager

    closers []func() error
}

// New wires the hot-seat service and the PvP managers. Sessions and PvP games
// live in Redis; finished games go to Postgres when DATABASE_URL is set,
// otherwise to a badger archive (CHECKERS_ARCHIVE_DIR) or memory.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
    if cfg == nil {
        return nil, fmt.Errorf("nil config")
    }
    if logger == nil {
        logger = zap.NewNop()
    }
    d := &Deps{}

    msgs, err := msgcat.New(cfg.MessagesDir)
    if err != nil {
        return nil, fmt.Errorf("load messages: %w", err)
    }
    d.Messages = msgs

    if strings.TrimSpace(cfg.RedisURL) == "" {
        return nil, fmt.Errorf("REDIS_URL is required for checkers sessions/cache")
    }
    cconf, err := cache.ParseRedisURL(cfg.RedisURL)
    if err != nil {
        return nil, fmt.Errorf("parse redis url: %w", err)
    }
    d.Cache, err = cache.NewCacheService(*cconf, logger)
    if err != nil {
        return nil, fmt.Errorf("init cache: %w", err)
    }
    d.closers = append(d.closers, d.Cache.Close)

    var pvpStore pvpcheckers.ResultStore
    switch {
    case strings.TrimSpace(cfg.DatabaseURL) != "":
        db, err := openPostgres(cfg.DatabaseURL)
        if err != nil {
            _ = d.Close()
            return nil, err
        }
        d.closers = append(d.closers, db.Close)
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        if err := svccheckers.EnsureSchema(ctx, db); err != nil {
            _ = d.Close()
            return nil, err
        }
        if _, err := db.ExecContext(ctx, pvpcheckers.Schema); err != nil {
            _ = d.Close()
            return nil, fmt.Errorf("pvp schema: %w", err)
        }
        d.Repo = svccheckers.NewRepository(db)
        pvpStore = pvpcheckers.NewRepositoryWithDB(db)
        logger.Info("checkers_repository", zap.String("backend", "postgres"))
    case strings.TrimSpace(cfg.ArchiveDir) != "":
        br, err := svccheckers.OpenBadgerRepository(cfg.ArchiveDir)
        if err != nil {
            _ = d.Close()
            return nil, fmt.Errorf("open archive: %w", err)
        }
        d.closers = append(d.closers, br.Close)
        d.Repo = br
        logger.Info("checkers_repository", zap.String("backend", "badger"), zap.String("dir", cfg.ArchiveDir))
    default:
        d.Repo = svccheckers.NewMemoryRepository()
        logger.Warn("checkers_repository", zap.String("backend", "memory"))
    }

    svcCfg := svccheckers.Config{
        SessionTTL:   time.Duration(cfg.CheckersSessionTTLSec) * time.Second,
        HistoryLimit: cfg.CheckersHistoryLimit,
        AllowedRooms: append([]string(nil), cfg.AllowedRooms...),
    }
    d.Service, err = svccheckers.NewService(d.Cache, d.Repo, svccheckers.NewSVGBoardRenderer(), svcCfg, logger)
    if err != nil {
        _ = d.Close()
        return nil, err
    }

    // PvP shares the cache connection.
    d.PvP = pvpcheckers.NewManagerWithClient(d.Cache.Client())
    d.PvP.AttachCatalog(msgs)
    d.PvP.SetTTL(time.Duration(cfg.PvPGameTTLSec) * time.Second)
    if pvpStore != nil {
        d.PvP.AttachRepository(pvpStore)
    }
    d.Lobby = pvpchan.NewManager(d.Cache.Client(), d.PvP)
    d.Challenges = pvp.NewManager()
    return d, nil
}

// Close releases resources in reverse order of acquisition.
func (d *Deps) Close() error {
    if d == nil {
        return nil
    }
    var first error
    for i := len(d.closers) - 1; i >= 0; i-- {
        if err := d.closers[i](); err != nil && first == nil {
            first = err
        }
    }
    d.closers = nil
    return first
}

func openPostgres(databaseURL string) (*sql.DB, error) {
    db, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, fmt.Errorf("open postgres: %w", err)
    }
    db.SetMaxOpenConns(16)
    db.SetMaxIdleConns(8)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ping postgres: %w", err)
    }
    return db, nil
}
