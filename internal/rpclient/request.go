package rpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Request отправляет коррелированный запрос без опций.
func (c *Client) Request(ctx context.Context, command string) (json.RawMessage, error) {
	return c.RequestWithOptions(ctx, command, nil)
}

// RequestWithOptions отправляет {command, requestId, ...options} и ждёт ответ
// с тем же requestId не дольше RequestTimeout от момента отправки.
// Возвращает объект ответа без служебных полей.
//
// Пока клиент переподключается, отправка сначала ждёт статуса Connected до
// RequestTimeout, и только потом запускается таймер ответа. В сумме вызов может
// занять до 2×RequestTimeout. Без соединения кадр теряется, и запрос
// завершается по таймауту.
func (c *Client) RequestWithOptions(ctx context.Context, command string, options any) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	id := RequestID(c.seq.Add(1))
	env, err := newEnvelope(command, id, options)
	if err != nil {
		return nil, err
	}
	data, err := c.codec.Encode(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", command, err)
	}

	ch := c.addPending(id)
	defer c.removePending(id)

	if c.Status() == Connecting {
		gate, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		_ = c.waitStatus(gate, Connected)
		cancel()
	}

	c.log.Debug("request", "command", command, "request_id", uint64(id))
	c.sendRaw(ctx, data)

	timer := time.NewTimer(c.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("request %s: %w", command, res.err)
		}
		if res.frame.Failed {
			return nil, &ServerError{Command: command, Message: res.frame.Err}
		}
		return res.frame.Payload, nil
	case <-timer.C:
		c.log.Debug("request timed out", "command", command, "request_id", uint64(id))
		return nil, &TimeoutError{Op: "request", Command: command, After: c.cfg.RequestTimeout}
	case <-ctx.Done():
		return nil, fmt.Errorf("request %s: %w", command, ctx.Err())
	case <-c.ctx.Done():
		// Close мог пройти failPending до того, как запрос встал в таблицу
		return nil, fmt.Errorf("request %s: %w", command, ErrClosed)
	}
}

// Call оборачивает RequestWithOptions и разбирает ответ в R.
func Call[R any](ctx context.Context, c *Client, command string, options any) (R, error) {
	var out R
	raw, err := c.RequestWithOptions(ctx, command, options)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s reply: %w", command, err)
	}
	return out, nil
}

func (c *Client) addPending(id RequestID) chan result {
	ch := make(chan result, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	return ch
}

func (c *Client) removePending(id RequestID) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// deliver отдаёт ответ ждущему вызову ровно один раз.
// false, если никто не ждёт (таймаут уже сработал или id чужой).
func (c *Client) deliver(f Frame) bool {
	c.pendingMu.Lock()
	ch, ok := c.pending[f.RequestID]
	if ok {
		delete(c.pending, f.RequestID)
	}
	c.pendingMu.Unlock()
	if !ok {
		return false
	}
	ch <- result{frame: f}
	return true
}

// failPending завершает все ожидающие запросы ошибкой.
func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		ch <- result{err: err}
		delete(c.pending, id)
	}
}
