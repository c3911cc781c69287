package rpclient

// Send отправляет команду без ответа и без опций.
func (c *Client) Send(command string) {
	c.SendWithOptions(command, nil)
}

// SendWithOptions пишет {command, ...options} без requestId. Ошибок не
// возвращает: плохие опции и отсутствие соединения только логируются.
func (c *Client) SendWithOptions(command string, options any) {
	env, err := newEnvelope(command, 0, options)
	if err != nil {
		c.log.Warn("send dropped", "command", command, "err", err)
		return
	}
	data, err := c.codec.Encode(env)
	if err != nil {
		c.log.Warn("send dropped", "command", command, "err", err)
		return
	}
	c.log.Debug("send", "command", command)
	c.sendRaw(c.ctx, data)
}
