package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"lyricvideo/internal/model"
)

var ErrSongNotFound = errors.New("song not found")

const (
	// uuid 列统一转为文本
	songColumns = `id::text AS id, title, artist, description, audio_file_path, duration_seconds,
		artist_gender, original_lyrics_text, cover_image_prompt`
	lyricColumns = `id::text AS id, song_id::text AS song_id, line_number, english_text, korean_text, start_time_seconds,
		end_time_seconds, voice_over_file_path, breakdown_data, is_published`

	getSongQuery            = `SELECT ` + songColumns + ` FROM songs WHERE id = $1`
	listPublishedSongsQuery = `SELECT id::text AS id, title, language, is_published FROM songs
		WHERE is_published = true AND language = $1 ORDER BY created_at DESC`
)

// SongStore 歌曲与歌词的只读访问
type SongStore struct {
	db  pgxscan.Querier
	log *logrus.Entry
}

// NewSongStore 使用已有连接执行查询
func NewSongStore(db pgxscan.Querier) *SongStore {
	return &SongStore{db: db, log: logrus.WithField("component", "store")}
}

// Connect 创建连接池并检查连通性
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	// 兼容 Supabase 事务模式连接池，不使用预编译语句缓存
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (s *SongStore) GetSong(ctx context.Context, songID string) (*model.SongMetadata, error) {
	var song model.SongMetadata
	if err := pgxscan.Get(ctx, s.db, &song, getSongQuery, songID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSongNotFound, songID)
		}
		return nil, fmt.Errorf("get song %s: %w", songID, err)
	}
	return &song, nil
}

// GetLyrics 按行号升序返回 [start, end] 区间内的歌词，nil 表示不限
func (s *SongStore) GetLyrics(ctx context.Context, songID string, start, end *int) ([]model.LyricLine, error) {
	query, args := lyricsQuery(songID, start, end)
	var lines []model.LyricLine
	if err := pgxscan.Select(ctx, s.db, &lines, query, args...); err != nil {
		return nil, fmt.Errorf("get lyrics for %s: %w", songID, err)
	}
	s.log.WithFields(logrus.Fields{"song_id": songID, "lines": len(lines)}).Debug("lyrics fetched")
	return lines, nil
}

// GetAllLyrics 整首歌词，用于风格推断的上下文
func (s *SongStore) GetAllLyrics(ctx context.Context, songID string) ([]model.LyricLine, error) {
	return s.GetLyrics(ctx, songID, nil, nil)
}

func (s *SongStore) ListPublishedSongs(ctx context.Context, language string) ([]model.SongSummary, error) {
	var songs []model.SongSummary
	if err := pgxscan.Select(ctx, s.db, &songs, listPublishedSongsQuery, language); err != nil {
		return nil, fmt.Errorf("list published songs: %w", err)
	}
	return songs, nil
}

func lyricsQuery(songID string, start, end *int) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT ` + lyricColumns + ` FROM lyrics WHERE song_id = $1`)
	args := []any{songID}
	if start != nil {
		args = append(args, *start)
		fmt.Fprintf(&b, ` AND line_number >= $%d`, len(args))
	}
	if end != nil {
		args = append(args, *end)
		fmt.Fprintf(&b, ` AND line_number <= $%d`, len(args))
	}
	b.WriteString(` ORDER BY line_number`)
	return b.String(), args
}
