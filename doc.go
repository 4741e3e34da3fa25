/*
go-airpose estimates 3D human pose and camera space position from a single
view, as seen from an aerial camera where the absolute distance to the person
is the hardest quantity to recover.

The Estimator runs an iterative regressor over pooled image features to
predict joint rotations, body shape and root translation.  The depth package
provides an analytic root depth estimate from a posed skeleton and its 2D
keypoints, used both to supervise the regressor and to check its output at
inference time.

See example code and usage in the example subdirectory.
*/
package airpose
