package mocks

//go:generate mockery --name DetectionStore --srcpkg github.com/oa-device/oaParkingMonitor/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name BinReader --srcpkg github.com/oa-device/oaParkingMonitor/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
