package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileSink appends every email and SMS to a log file. Enabled by LOG_NOTIFICATIONS.
type FileSink struct {
	mu       sync.Mutex
	filePath string
}

// NewFileSink ensures the directory for the log file exists.
func NewFileSink(filePath string) (*FileSink, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("notification log file path cannot be empty")
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for notification log file '%s': %w", dir, err)
	}
	return &FileSink{filePath: filePath}, nil
}

func (s *FileSink) write(header, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open notification log file: %w", err)
	}
	defer file.Close()

	entry := fmt.Sprintf("--- %s at %s ---\n%s\n--- end ---\n\n", header, time.Now().Format(time.RFC3339Nano), body)
	if _, err := file.WriteString(entry); err != nil {
		return fmt.Errorf("failed to write notification to log file: %w", err)
	}
	return nil
}

func (s *FileSink) SendEmail(ctx context.Context, to, subject, body string) error {
	return s.write(fmt.Sprintf("Email (To: %s, Subject: %s)", to, subject), body)
}

func (s *FileSink) SendSMS(ctx context.Context, to, body string) error {
	return s.write(fmt.Sprintf("SMS (To: %s)", to), body)
}
