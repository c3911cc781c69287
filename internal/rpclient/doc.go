// Package rpclient реализует WebSocket RPC-клиент игрового сервера RTS.
// Клиент держит одно постоянное соединение (ws://host/websocket или wss://...),
// мультиплексирует по нему коррелированные запросы и fire-and-forget команды,
// сопоставляет ответы по requestId, сам переподключается после обрыва и
// раздаёт push-события сервера (дельты состояния игры, чат, сообщения)
// независимым слушателям.
//
// Поверхность, на которой строится всё остальное:
//
//   - Request, RequestWithOptions (и типизированный Call) для запроса с ответом;
//   - Send, SendWithOptions для команд без ответа;
//   - Add/RemoveConnectionStatusListener для смены статуса соединения;
//   - Add/RemoveMessageListener для push-событий без requestId.
//
// Протокол (JSON, плоские поля):
//
//	-> {"command":"GET_GAME_INFORMATION","requestId":7,"gameId":"g1"}
//	<- {"requestId":7,"gameInformation":{"id":"g1"}}
//	<- {"requestId":8,"error":"no such game"}
//	-> {"command":"START_GAME","gameId":"g1"}
//	<- {"type":"chat","text":"hi"}
//
// Ошибки наружу отдаются только для конкретного запроса: таймаут (ErrTimeout),
// ошибка сервера (*ServerError), отмена контекста, закрытый клиент.
// Сбои транспорта видны только через смену статуса.
//
// Таймер ответа запускается после отправки. Если запрос пришёл во время
// переподключения, он сперва ждёт Connected до RequestTimeout, так что
// общий срок ожидания может достигать 2×RequestTimeout.
//
// Слушатели вызываются синхронно (push из горутины чтения, статус из той
// горутины, что его меняет), поэтому они не должны вызывать Connect/Close и не должны надолго
// блокироваться.
//
// Пример:
//
//	c := rpclient.New(rpclient.Config{URL: "ws://127.0.0.1:8080/websocket"})
//	if err := c.Connect(ctx); err != nil { log.Fatal(err) }
//	defer c.Close()
//
//	c.AddMessageListener(rpclient.NewMessageListener(func(p rpclient.Push) {
//	    fmt.Println("push:", string(p.Raw))
//	}))
//
//	info, err := c.GetGameInformation(ctx, "g1")
//	c.SendWithOptions("START_GAME", map[string]any{"gameId": "g1"})
package rpclient
