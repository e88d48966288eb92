package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      generator,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    generator,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    generator,
    config
FROM sessions
ORDER BY id`

	selectLatestSessionSQL = `
SELECT
    id,
    start_time,
    generator,
    config
FROM sessions
ORDER BY id DESC
LIMIT 1`

	insertSampleSQL = `
INSERT INTO samples (session_id,
                     idx,
                     timestamp,
                     azimuth,
                     elevation,
                     amplitude,
                     cut_index)
VALUES `

	selectCutBoundsSQL = `
SELECT
    COALESCE(MIN(cut_index), 0),
    COALESCE(MAX(cut_index), 0)
FROM samples
WHERE
    session_id = ?`

	selectSamplesSQL = `
SELECT
    idx,
    timestamp,
    azimuth,
    elevation,
    amplitude,
    cut_index
FROM samples
WHERE
    session_id = ?
    AND cut_index BETWEEN ? AND ?
ORDER BY idx`
)

//go:embed schema.sql
var initSchemaSQL string
