package store

import (
	"database/sql"
	"time"
)

const subscriptionColumns = "id, name, url, user_agent, headers, auto_update_minutes, enabled, last_updated, last_update_status, created_at, updated_at"

const channelColumns = "id, subscription_id, name, url, tvg_id, logo, group_title, enabled, check_status, check_date, check_error, check_image, check_source"

const taskColumns = "id, name, status, progress, message, created_at, updated_at"

type rowScanner interface{ Scan(dest ...any) error }

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableBool(value *bool) any {
	if value == nil {
		return nil
	}
	if *value {
		return 1
	}
	return 0
}

func parseTimePtr(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseTime(raw sql.NullString) time.Time {
	if ptr := parseTimePtr(raw); ptr != nil {
		return *ptr
	}
	return time.Time{}
}

func scanSubscription(scanner rowScanner) (*Subscription, error) {
	var (
		sub         Subscription
		userAgent   sql.NullString
		headers     sql.NullString
		enabled     int
		lastUpdated sql.NullString
		lastStatus  sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&sub.ID,
		&sub.Name,
		&sub.URL,
		&userAgent,
		&headers,
		&sub.AutoUpdateMinutes,
		&enabled,
		&lastUpdated,
		&lastStatus,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	sub.UserAgent = userAgent.String
	sub.Headers = headers.String
	sub.Enabled = enabled != 0
	sub.LastUpdated = parseTimePtr(lastUpdated)
	sub.LastUpdateStatus = lastStatus.String
	sub.CreatedAt = parseTime(createdRaw)
	sub.UpdatedAt = parseTime(updatedRaw)
	return &sub, nil
}

func scanChannel(scanner rowScanner) (*Channel, error) {
	var (
		ch          Channel
		tvgID       sql.NullString
		logo        sql.NullString
		group       sql.NullString
		enabled     int
		checkStatus sql.NullInt64
		checkDate   sql.NullString
		checkError  sql.NullString
		checkImage  sql.NullString
		checkSource sql.NullString
	)
	if err := scanner.Scan(
		&ch.ID,
		&ch.SubscriptionID,
		&ch.Name,
		&ch.URL,
		&tvgID,
		&logo,
		&group,
		&enabled,
		&checkStatus,
		&checkDate,
		&checkError,
		&checkImage,
		&checkSource,
	); err != nil {
		return nil, err
	}
	ch.TvgID = tvgID.String
	ch.Logo = logo.String
	ch.Group = group.String
	ch.Enabled = enabled != 0
	if checkStatus.Valid {
		status := checkStatus.Int64 != 0
		ch.CheckStatus = &status
	}
	ch.CheckDate = parseTimePtr(checkDate)
	ch.CheckError = checkError.String
	ch.CheckImage = checkImage.String
	ch.CheckSource = checkSource.String
	return &ch, nil
}

func scanTask(scanner rowScanner) (*Task, error) {
	var (
		task       Task
		status     string
		message    sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&task.ID,
		&task.Name,
		&status,
		&task.Progress,
		&message,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	task.Status = TaskStatus(status)
	task.Message = message.String
	task.CreatedAt = parseTime(createdRaw)
	task.UpdatedAt = parseTime(updatedRaw)
	return &task, nil
}
