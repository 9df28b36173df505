package connection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"streamgate/internal/classify"
	"streamgate/internal/endpoint"
)

// performHandshake runs the greeting and authentication phases over an open
// client. The prober and the supervisor share this logic; the only
// difference between them is what happens to the socket afterwards.
//
// Market-data endpoints emit an unsolicited greeting frame; waiting for it
// is bounded by cfg.GreetingWait and its absence is tolerated. The auth
// result wait is bounded by cfg.AuthWait; its absence is ErrHandshakeTimeout.
func performHandshake(
	c Client,
	ep endpoint.Descriptor,
	creds Credentials,
	classifier *classify.Classifier,
	cfg HandshakeConfig,
	logger *slog.Logger,
) error {
	if ep.Kind == endpoint.KindMarketData {
		awaitGreeting(c, classifier, cfg.GreetingWait, logger)
	}

	if !ep.RequiresAuth {
		return nil
	}

	req, err := json.Marshal(authRequest{
		Action: "auth",
		Key:    creds.Key,
		Secret: creds.Secret,
	})
	if err != nil {
		return fmt.Errorf("marshal auth request: %w", err)
	}
	if err := c.Send(req); err != nil {
		return fmt.Errorf("send auth request: %w", err)
	}

	return awaitAuthResult(c, ep, classifier, cfg.AuthWait)
}

// awaitGreeting waits briefly for the endpoint's greeting frame. A missing
// greeting is not an error; some endpoints simply do not send one.
func awaitGreeting(c Client, classifier *classify.Classifier, wait time.Duration, logger *slog.Logger) {
	deadline := time.After(wait)

	for {
		select {
		case <-deadline:
			logger.Debug("no greeting frame, continuing")
			return

		case err := <-c.Errors():
			logger.Debug("connection error while awaiting greeting", "error", err)
			return

		case msg, ok := <-c.Messages():
			if !ok {
				return
			}
			frames, err := classifier.Decode(msg.Data)
			if err != nil {
				logger.Debug("undecodable frame while awaiting greeting", "error", err)
				continue
			}
			for _, f := range frames {
				if f.T == classify.TypeSuccess {
					return
				}
			}
		}
	}
}

// awaitAuthResult waits for the authentication outcome. Frames that are
// neither an auth result nor an error (late greetings, stray data) are
// skipped; the deadline keeps running across them.
func awaitAuthResult(c Client, ep endpoint.Descriptor, classifier *classify.Classifier, wait time.Duration) error {
	deadline := time.After(wait)

	for {
		select {
		case <-deadline:
			return ErrHandshakeTimeout

		case err := <-c.Errors():
			return fmt.Errorf("connection lost during auth: %w", err)

		case msg, ok := <-c.Messages():
			if !ok {
				return ErrHandshakeTimeout
			}
			frames, err := classifier.Decode(msg.Data)
			if err != nil {
				continue
			}
			for _, f := range frames {
				if done, err := authOutcome(ep, f); done {
					return err
				}
			}
		}
	}
}

// authOutcome inspects one frame for an authentication result. The first
// return value reports whether the frame settled the handshake.
func authOutcome(ep endpoint.Descriptor, f classify.Frame) (bool, error) {
	switch ep.Kind {
	case endpoint.KindMarketData:
		if f.T == classify.TypeError {
			return true, &AuthError{Code: f.Code, Msg: f.Msg}
		}
		if f.T == classify.TypeSuccess && f.Msg == "authenticated" {
			return true, nil
		}

	case endpoint.KindAccount:
		if f.Stream != classify.StreamAuthorization {
			return false, nil
		}
		var data authorizationData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return false, nil
		}
		if data.Status == "authorized" {
			return true, nil
		}
		return true, &AuthError{Code: CodeUnauthorized, Msg: "unauthorized"}
	}

	return false, nil
}
