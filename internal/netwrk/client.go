package netwrk

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"

	"github.com/rs/zerolog/log"

	"airhockey/internal/hockey"
)

// readLoop decodes newline-delimited JSON commands from one client until the
// connection drops. Malformed lines are logged and dropped without breaking
// the connection; a read error or EOF triggers disconnection handling.
func (s *GameServer) readLoop(conn net.Conn, playerID int) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var cmd Command
		if err := json.Unmarshal(line, &cmd); err != nil {
			log.Warn().
				Err(err).
				Int("player", playerID).
				Msg("dropping malformed command")
			continue
		}
		s.handleCommand(playerID, cmd)
	}
	s.disconnect(playerID)
}

// handleCommand applies one client command under the session lock. Rejected
// commands are silent no-ops; the next broadcast carries the true state.
func (s *GameServer) handleCommand(playerID int, cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Type {
	case CmdUpdatePaddle:
		if len(cmd.Pos) >= 2 {
			s.game.UpdatePaddle(playerID, cmd.Pos[0], cmd.Pos[1])
		}
	case CmdPauseGame:
		s.game.Pause(playerID)
	case CmdResumeGame:
		s.game.Resume(playerID)
	case CmdRequestRestart:
		s.game.RequestRestart(playerID)
	case CmdRespondRestart:
		if s.game.RespondRestart(playerID, cmd.Accept) == hockey.RestartAccepted {
			s.reported = false
			s.resetPrevLocked()
			if len(s.clients) == 2 {
				s.game.StartGame()
			}
		}
	case CmdCancelRestart:
		s.game.CancelRestart(playerID)
	case CmdLogin:
		s.identities[playerID] = Identity{Name: cmd.Name, Token: cmd.Token}
		log.Info().
			Int("player", playerID).
			Str("name", cmd.Name).
			Msg("player identified")
	default:
		log.Debug().
			Str("type", cmd.Type).
			Int("player", playerID).
			Msg("ignoring unknown command")
	}
}
