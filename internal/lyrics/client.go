// Package lyrics содержит клиент внешнего сервиса генерации текстов песен.
// Сервис принимает название трека и возвращает текст с временными метками;
// клиент лениво разбирает ответ построчно, отбрасывая некорректные строки.
package lyrics

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Line представляет одну строку текста с временной меткой
type Line struct {
	Offset float64 // Смещение от начала трека в секундах
	Text   string
}

// lineRe разбирает строку формата LRC: [мм:сс.хх] текст
var lineRe = regexp.MustCompile(`^\[(\d+):(\d{1,2}(?:\.\d+)?)\]\s*(.*)$`)

// Client запрашивает тексты у внешнего сервиса
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient создает клиент сервиса текстов
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		// Общего таймаута нет: ответ читается лениво по мере надобности,
		// ограничиваем только установление соединения
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       300 * time.Second,
			},
		},
	}
}

// Fetch запрашивает текст для трека. Возвращаемый поток читает ответ
// лениво: строки разбираются по мере вызовов Next.
func (c *Client) Fetch(ctx context.Context, trackName string) (*Stream, error) {
	reqURL := fmt.Sprintf("%s?track=%s", c.endpoint, url.QueryEscape(trackName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("User-Agent", "go-phono/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса текста: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}

	return &Stream{
		body:   resp.Body,
		reader: bufio.NewReader(resp.Body),
	}, nil
}

// Stream — ленивая последовательность строк текста
type Stream struct {
	body   io.Closer
	reader *bufio.Reader
}

// Next возвращает следующую строку с меткой. Некорректные строки
// пропускаются; false означает конец ответа. Строки читаются без
// ограничения длины: неразумно длинная строка отбрасывается разбором,
// а не обрывает весь поток.
func (s *Stream) Next() (Line, bool) {
	for {
		raw, err := s.reader.ReadString('\n')
		if raw != "" {
			line, ok := parseLine(strings.TrimRight(raw, "\r\n"))
			if ok {
				return line, true
			}
		}
		if err != nil {
			return Line{}, false
		}
	}
}

// All дочитывает поток до конца и возвращает все строки
func (s *Stream) All() []Line {
	var lines []Line
	for {
		line, ok := s.Next()
		if !ok {
			return lines
		}
		lines = append(lines, line)
	}
}

// Close закрывает соединение с сервисом
func (s *Stream) Close() error {
	return s.body.Close()
}

// parseLine разбирает строку LRC; некорректная метка времени — не ошибка,
// строка просто отбрасывается
func parseLine(raw string) (Line, bool) {
	matches := lineRe.FindStringSubmatch(raw)
	if matches == nil {
		return Line{}, false
	}

	minutes, err := strconv.Atoi(matches[1])
	if err != nil {
		return Line{}, false
	}
	seconds, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return Line{}, false
	}

	return Line{
		Offset: float64(minutes)*60 + seconds,
		Text:   matches[3],
	}, true
}

// ActiveIndex возвращает индекс строки, соответствующей позиции
// воспроизведения, либо -1, если до первой строки еще не дошло
func ActiveIndex(lines []Line, positionSeconds float64) int {
	active := -1
	for i, line := range lines {
		if line.Offset <= positionSeconds {
			active = i
		} else {
			break
		}
	}
	return active
}
