package simserver

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dinesync/dinesync/internal/realtime"
)

func (s *Server) handleFrame(sess *session, data []byte) {
	var env realtime.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "simserver").Str("sid", sess.id).Msg("bad frame")
		s.sendError(sess, "bad frame")
		return
	}

	switch env.Event {
	case realtime.EventJoinRoom:
		s.handleJoinRoom(sess, env.Data)
	case realtime.EventLeaveRoom:
		s.handleLeaveRoom(sess, env.Data)
	case realtime.EventOrderStatusUpdate:
		s.handleOrderStatusUpdate(sess, env.Data)
	case realtime.EventOrderTracking:
		s.handleOrderTracking(sess, env.Data)
	case realtime.EventAcknowledgeCall:
		s.handleCallStatus(sess, env.Data, realtime.CallAcknowledged)
	case realtime.EventCompleteCall:
		s.handleCallStatus(sess, env.Data, realtime.CallCompleted)
	default:
		log.Warn().Str("module", "simserver").Str("event", env.Event).Msg("unknown event")
		s.sendError(sess, "unknown event: "+env.Event)
	}
}

func (s *Server) handleJoinRoom(sess *session, data json.RawMessage) {
	var cmd realtime.JoinRoomCommand
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.Room == "" {
		s.sendError(sess, "bad join_room payload")
		return
	}
	s.hub.join(sess, cmd.Room)
	log.Info().Str("module", "simserver").Str("sid", sess.id).
		Str("room", cmd.Room).Str("user_type", cmd.UserType).Msg("joined room")
	s.sendTo(sess, realtime.EventRoomJoined, realtime.RoomJoined{
		Room:     cmd.Room,
		UserType: cmd.UserType,
	})
}

func (s *Server) handleLeaveRoom(sess *session, data json.RawMessage) {
	var cmd realtime.LeaveRoomCommand
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.Room == "" {
		s.sendError(sess, "bad leave_room payload")
		return
	}
	s.hub.leave(sess, cmd.Room)
	s.sendTo(sess, realtime.EventRoomLeft, realtime.RoomLeft{Room: cmd.Room})
}

func (s *Server) handleOrderStatusUpdate(sess *session, data json.RawMessage) {
	var cmd realtime.OrderStatusUpdateCommand
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.Status == "" {
		s.sendError(sess, "bad order_status_update payload")
		return
	}
	order, ok := s.hub.setOrderStatus(cmd.OrderID, cmd.Status)
	if !ok {
		s.sendError(sess, "unknown order")
		return
	}
	log.Info().Str("module", "simserver").Int64("order_id", order.ID).
		Str("status", order.Status).Str("by", cmd.UserType).Msg("order status updated")

	// Staff views get the cheap partial update, trackers of this one order
	// get the full object.
	update := realtime.OrderUpdate{OrderID: order.ID, Status: order.Status}
	s.hub.broadcast(realtime.RoomAdmin, realtime.EventOrderUpdated, update)
	s.hub.broadcast(realtime.RoomStaff, realtime.EventOrderUpdated, update)
	s.hub.broadcast(orderRoom(order.ID), realtime.EventOrderStatus,
		realtime.OrderPayload{Order: order})
}

func (s *Server) handleOrderTracking(sess *session, data json.RawMessage) {
	var cmd realtime.OrderTrackingRequestCommand
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.OrderID == 0 {
		s.sendError(sess, "bad order_tracking_request payload")
		return
	}
	room := cmd.RoomID
	if room == "" {
		room = orderRoom(cmd.OrderID)
	}
	s.hub.join(sess, room)
	s.sendTo(sess, realtime.EventTrackingStarted,
		realtime.TrackingStarted{OrderID: cmd.OrderID})
	if order, ok := s.hub.getOrder(cmd.OrderID); ok {
		s.sendTo(sess, realtime.EventOrderStatus, realtime.OrderPayload{Order: order})
	}
}

func (s *Server) handleCallStatus(sess *session, data json.RawMessage, status string) {
	var cmd realtime.WaiterCallCommand
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.CallID == "" {
		s.sendError(sess, "bad waiter call payload")
		return
	}
	call, ok := s.hub.setCallStatus(cmd.CallID, status)
	if !ok {
		s.sendError(sess, "unknown waiter call")
		return
	}
	log.Info().Str("module", "simserver").Str("call_id", call.ID).
		Str("status", call.Status).Msg("waiter call updated")

	s.hub.broadcast(realtime.RoomAdmin, realtime.EventWaiterCallUpdate, call)
	s.hub.broadcast(realtime.RoomStaff, realtime.EventWaiterCallUpdate, call)
	if call.TableUniqueID != "" {
		s.hub.broadcast(call.TableUniqueID, realtime.EventWaiterCallUpdate, call)
	}
}

func (s *Server) sendTo(sess *session, event string, payload any) {
	env, err := realtime.NewEnvelope(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "simserver").Str("event", event).Msg("marshal")
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "simserver").Str("event", event).Msg("marshal")
		return
	}
	if err := sess.trySend(data); err != nil {
		log.Warn().Err(err).Str("module", "simserver").Str("sid", sess.id).Msg("dropping frame")
	}
}

func (s *Server) sendError(sess *session, msg string) {
	s.sendTo(sess, realtime.EventError, realtime.ErrorMessage{Message: msg})
}
