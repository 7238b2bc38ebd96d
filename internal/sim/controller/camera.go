package controller

import "github.com/alters-mit/sticky-mitten-avatar/internal/protocol"

// RotateCameraBy pitches and yaws the avatar's sensor container. One step,
// no control loop.
func (c *Controller) RotateCameraBy(pitch, yaw float64) error {
	_, err := c.step(
		protocol.RotateSensorContainerBy(c.av.ID, "pitch", pitch),
		protocol.RotateSensorContainerBy(c.av.ID, "yaw", yaw),
	)
	return err
}

// ResetCameraRotation puts the sensor container back to its default.
func (c *Controller) ResetCameraRotation() error {
	_, err := c.step(protocol.ResetSensorContainerRotation(c.av.ID))
	return err
}
