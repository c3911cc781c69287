package rpclient

import (
	"context"
	"encoding/json"
)

// ========================= high-level API =========================
// Игровые команды поверх Request/Send. Подтверждение для команд без ответа
// приходит позже push-событием или видно при следующем чтении состояния.

const (
	CmdGetGames           = "GET_GAMES"
	CmdGetGameInformation = "GET_GAME_INFORMATION"
	CmdGetGameState       = "GET_GAME_STATE"
	CmdCreateGame         = "CREATE_GAME"
	CmdStartGame          = "START_GAME"
	CmdPlaceBuilding      = "PLACE_BUILDING"
	CmdSendChatMessage    = "SEND_CHAT_MESSAGE"
)

type GameInformation struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Status  string   `json:"status,omitempty"`
	MapID   string   `json:"mapId,omitempty"`
	Players []Player `json:"players,omitempty"`
}

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ChatMessage приходит push-событием чата ({"type":"chat",...}).
type ChatMessage struct {
	Type     string `json:"type"`
	GameID   string `json:"gameId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Text     string `json:"text"`
}

func (c *Client) GetGames(ctx context.Context) ([]GameInformation, error) {
	reply, err := Call[struct {
		Games []GameInformation `json:"games"`
	}](ctx, c, CmdGetGames, nil)
	return reply.Games, err
}

func (c *Client) GetGameInformation(ctx context.Context, gameID string) (*GameInformation, error) {
	reply, err := Call[struct {
		GameInformation GameInformation `json:"gameInformation"`
	}](ctx, c, CmdGetGameInformation, map[string]any{"gameId": gameID})
	if err != nil {
		return nil, err
	}
	return &reply.GameInformation, nil
}

// GetGameState возвращает снапшот состояния как есть, разбирает его вызывающий.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	reply, err := Call[struct {
		GameState json.RawMessage `json:"gameState"`
	}](ctx, c, CmdGetGameState, map[string]any{"gameId": gameID})
	return reply.GameState, err
}

func (c *Client) CreateGame(ctx context.Context, name, mapID string, players []Player) (*GameInformation, error) {
	reply, err := Call[struct {
		GameInformation GameInformation `json:"gameInformation"`
	}](ctx, c, CmdCreateGame, struct {
		Name    string   `json:"name"`
		MapID   string   `json:"mapId"`
		Players []Player `json:"players,omitempty"`
	}{name, mapID, players})
	if err != nil {
		return nil, err
	}
	return &reply.GameInformation, nil
}

func (c *Client) StartGame(gameID string) {
	c.SendWithOptions(CmdStartGame, map[string]any{"gameId": gameID})
}

func (c *Client) PlaceBuilding(gameID, playerID, building string, at Point) {
	c.SendWithOptions(CmdPlaceBuilding, map[string]any{
		"gameId":   gameID,
		"playerId": playerID,
		"type":     building,
		"x":        at.X,
		"y":        at.Y,
	})
}

func (c *Client) SendChatMessage(gameID, playerID, text string) {
	c.SendWithOptions(CmdSendChatMessage, map[string]any{
		"gameId":   gameID,
		"playerId": playerID,
		"text":     text,
	})
}

// OnPushType подписывает fn на push-события с заданным полем type.
// Возвращённый хэндл снимается через RemoveMessageListener.
func (c *Client) OnPushType(typ string, fn func(Push)) *MessageListener {
	l := NewMessageListener(func(p Push) {
		if p.Type() == typ {
			fn(p)
		}
	})
	c.AddMessageListener(l)
	return l
}

// OnChatMessage работает как OnPushType("chat") и разбирает кадр в ChatMessage.
func (c *Client) OnChatMessage(fn func(ChatMessage)) *MessageListener {
	return c.OnPushType("chat", func(p Push) {
		var m ChatMessage
		if err := p.Decode(&m); err != nil {
			c.log.Warn("bad chat push", "err", err)
			return
		}
		fn(m)
	})
}

// ========================= удобный враппер Game =========================

type Game struct {
	c  *Client
	id string
}

func (c *Client) Game(gameID string) *Game {
	return &Game{c: c, id: gameID}
}

func (g *Game) ID() string { return g.id }

func (g *Game) Information(ctx context.Context) (*GameInformation, error) {
	return g.c.GetGameInformation(ctx, g.id)
}

func (g *Game) State(ctx context.Context) (json.RawMessage, error) {
	return g.c.GetGameState(ctx, g.id)
}

func (g *Game) Start() { g.c.StartGame(g.id) }

func (g *Game) PlaceBuilding(playerID, building string, at Point) {
	g.c.PlaceBuilding(g.id, playerID, building, at)
}

func (g *Game) Say(playerID, text string) { g.c.SendChatMessage(g.id, playerID, text) }
