package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"spheremap/internal/client"
	"spheremap/internal/geometry"
	"spheremap/internal/render"
)

// DragNode handles a node drop. The node snaps into its sphere immediately;
// the constrained position is then written in the background. A failed
// write sets the error slot and does not move the node back.
func (d *Dashboard) DragNode(ctx context.Context, nodeID int64, pixel geometry.Point, size geometry.Size) (render.DragResult, error) {
	result, err := d.driver.Drag(nodeID, pixel, size)
	if err != nil {
		if errors.Is(err, render.ErrUnknownNode) {
			err = fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return render.DragResult{}, d.fail(err)
	}
	d.events.Publish(Event{Type: EventNodeDragged, Payload: result})

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		// the drag gesture is over before the write finishes
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		d.persistPosition(pctx, result)
	}()
	return result, nil
}

// WaitPending blocks until every background position write has finished
func (d *Dashboard) WaitPending() {
	d.pending.Wait()
}

func (d *Dashboard) persistPosition(ctx context.Context, result render.DragResult) {
	start := time.Now()
	pos := result.Position
	_, err := d.api.UpdateNode(ctx, result.NodeID, client.NodePatch{Position: &pos})
	d.metrics.RecordDragPersist(err, time.Since(start))
	if err != nil {
		d.fail(fmt.Errorf("save position of node %d: %w", result.NodeID, err))
		return
	}
	log.Printf("Saved position of node %d at (%.3f, %.3f)", result.NodeID, pos.X, pos.Y)
}
